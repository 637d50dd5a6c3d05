package model

import "gorm.io/datatypes"

// PlannerRunModel 是规划运行审计日志的持久化形态。
// state/decision/missing_fields 以 JSON 文本落库，读取时再解码。
type PlannerRunModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	TraceID       string         `gorm:"column:trace_id;uniqueIndex"`
	Query         string         `gorm:"column:query"`
	Intent        string         `gorm:"column:intent"`
	Action        string         `gorm:"column:action"`
	Message       string         `gorm:"column:message"`
	Symbol        string         `gorm:"column:symbol"`
	ErrorText     string         `gorm:"column:error_text"`
	StateJSON     datatypes.JSON `gorm:"column:state_json;type:TEXT"`
	DecisionJSON  datatypes.JSON `gorm:"column:decision_json;type:TEXT"`
	MissingJSON   datatypes.JSON `gorm:"column:missing_json;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (PlannerRunModel) TableName() string { return "planner_runs" }
