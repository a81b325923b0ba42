package portraits

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StatusOK is the RESULT.STATUS value of a successful call.
const StatusOK = "0"

// Envelope is the top-level response of every SchoolBasicSurvey endpoint.
type Envelope struct {
	StatusList StatusList `json:"GET_STATUS_LIST"`
}

// StatusList carries the call result and the data list.
type StatusList struct {
	Result   Result   `json:"RESULT"`
	DataList DataList `json:"DATALIST_INF"`
}

// Result is the call status. STATUS is "0" on success; any other value comes
// with ERROR_MSG.
type Result struct {
	Status   string `json:"STATUS"`
	ErrorMsg string `json:"ERROR_MSG"`
}

// DataList holds the returned survey records.
type DataList struct {
	Number   json.RawMessage `json:"NUMBER"`
	DataInfo []DataInfo      `json:"DATA_INF"`
}

// DataInfo wraps one survey record; CONTENT is endpoint specific.
type DataInfo struct {
	Content json.RawMessage `json:"CONTENT"`
}

// OK reports whether the call succeeded.
func (e *Envelope) OK() bool {
	return e.StatusList.Result.Status == StatusOK
}

// Content returns the first CONTENT, or nil when the list is empty.
func (e *Envelope) Content() json.RawMessage {
	if len(e.StatusList.DataList.DataInfo) == 0 {
		return nil
	}
	c := e.StatusList.DataList.DataInfo[0].Content
	if len(c) == 0 || string(c) == "null" {
		return nil
	}
	return c
}

// Count is the NUMBER field, which arrives as a number or a quoted string.
func (e *Envelope) Count() int {
	raw := strings.Trim(string(e.StatusList.DataList.Number), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return len(e.StatusList.DataList.DataInfo)
	}
	return n
}
