package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// EventListResponse 上游赛事列表响应 {data:{events:[...]}}
type EventListResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Events []UpstreamEvent `json:"events"`
	} `json:"data"`
}

// UpstreamEvent 上游单条赛事（只保留落库需要的字段）
type UpstreamEvent struct {
	EventTypeID     FlexID `json:"event_type_id"`    // 运动类型，1=足球
	MarketID        FlexID `json:"market_id"`        // 主盘口ID，可能缺失
	EventID         FlexID `json:"event_id"`         // 赛事ID
	Name            string `json:"name"`             // 赛事名称
	CompetitionName string `json:"competition_name"` // 联赛名称
}

// MarketDataResponse 上游盘口赔率响应 {data:<任意结构>}
type MarketDataResponse struct {
	Data json.RawMessage `json:"data"`
}

// FlexID 上游ID字段有时是字符串有时是数字，统一按文本保存；
// 其他类型（布尔、对象、数组）按缺失处理，不影响同一列表里的其他赛事
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*f = ""
		return nil
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Int64 ID 为整数时返回其值
func (f FlexID) Int64() (int64, bool) {
	if f == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DeriveMarketID 优先 market_id，其次 event_id 的文本形式；都没有返回空串
func (e *UpstreamEvent) DeriveMarketID() string {
	if id := strings.TrimSpace(e.MarketID.String()); id != "" {
		return id
	}
	return strings.TrimSpace(e.EventID.String())
}

// IsEventType 判断赛事是否属于指定运动类型
func (e *UpstreamEvent) IsEventType(typeID int) bool {
	n, ok := e.EventTypeID.Int64()
	return ok && n == int64(typeID)
}

// IsEmptyPayload 判断上游赔率是否为空（缺失、null、""、{}、[]）
func IsEmptyPayload(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return true
	}
	var v interface{}
	if err := json.Unmarshal(t, &v); err != nil {
		return true
	}
	switch x := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(x) == 0
	case []interface{}:
		return len(x) == 0
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
