package domain

// ProvisioningResult 一次开号流程的最终结果
//
// 流程结束时构造一次，之后不可变。失败时 Stage 标记流程终止的位置，
// 成功时 Stage 为空。Progress 为完整的进度轨迹，按时间升序。
type ProvisioningResult struct {
	RunID          string          `json:"runId"`
	Success        bool            `json:"success"`
	Stage          FailureStage    `json:"stage,omitempty"`
	Email          string          `json:"email,omitempty"`
	Password       string          `json:"password,omitempty"`
	ActivationLink string          `json:"activationLink,omitempty"`
	Progress       []ProgressEvent `json:"progress"`
}
