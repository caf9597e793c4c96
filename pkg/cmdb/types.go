// Package cmdb implements the CMDB inventory operations on top of the batch
// aggregator: business host listings, host/topology groupings, and
// notification recipient resolution.
package cmdb

import (
	"encoding/json"
)

// Response is the ESB envelope every CMDB API answers with.
type Response struct {
	Result  bool     `json:"result"`
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    PageData `json:"data"`
}

// PageData is the payload of a paginated list API.
type PageData struct {
	Count int               `json:"count"`
	Info  []json.RawMessage `json:"info"`
}

// Host holds the host attributes the inventory operations use. Fields not
// named in the requested field list stay at their zero values.
type Host struct {
	HostID   int64  `json:"bk_host_id"`
	InnerIP  string `json:"bk_host_innerip"`
	CloudID  int64  `json:"bk_cloud_id"`
	HostName string `json:"bk_host_name"`
	OSType   string `json:"bk_os_type"`
	MAC      string `json:"bk_mac"`
}

// Module identifies one module a host belongs to.
type Module struct {
	ModuleID   int64  `json:"bk_module_id"`
	ModuleName string `json:"bk_module_name"`
}

// Set identifies one set a host belongs to.
type Set struct {
	SetID   int64  `json:"bk_set_id"`
	SetName string `json:"bk_set_name"`
}

// hostTopoRecord is the raw record shape of list_biz_hosts_topo.
type hostTopoRecord struct {
	Host Host `json:"host"`
	Topo []struct {
		SetID   int64    `json:"bk_set_id"`
		SetName string   `json:"bk_set_name"`
		Modules []Module `json:"module"`
	} `json:"topo"`
}

// HostTopo groups one host with the modules and sets it belongs to.
type HostTopo struct {
	Host    Host     `json:"host"`
	Modules []Module `json:"module"`
	Sets    []Set    `json:"set"`
}

// Business holds the search_business fields used for notification recipient
// resolution. The role fields carry comma-separated usernames.
type Business struct {
	BizID      int64  `json:"bk_biz_id"`
	BizName    string `json:"bk_biz_name"`
	Maintainer string `json:"bk_biz_maintainer"`
	Productor  string `json:"bk_biz_productor"`
	Developer  string `json:"bk_biz_developer"`
	Tester     string `json:"bk_biz_tester"`
	Operator   string `json:"operator"`
}
