package domain

import "time"

// Stage 开号流程的阶段标识
//
// 阶段严格单调前进，进度轨迹中不允许出现跳跃或回退。
type Stage string

const (
	StageStart          Stage = "start"           // 流程开始
	StageMailboxCreated Stage = "mailbox_created" // 临时邮箱创建完成
	StageRegistration   Stage = "registration"    // 注册提交成功，等待激活邮件
	StageActivation     Stage = "activation"      // 找到激活链接，正在激活
)

// stageOrder 阶段顺序表，用于校验进度轨迹的连续性
var stageOrder = map[Stage]int{
	StageStart:          0,
	StageMailboxCreated: 1,
	StageRegistration:   2,
	StageActivation:     3,
}

// Ordinal 返回阶段在流程中的序号，未知阶段返回 -1
func (s Stage) Ordinal() int {
	if ord, ok := stageOrder[s]; ok {
		return ord
	}
	return -1
}

// ProgressEvent 进度轨迹中的一条记录
//
// 由编排器在每次阶段切换时追加，追加后不再修改。
type ProgressEvent struct {
	Stage Stage     `json:"stage"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// FailureStage 流程终止位置的标识
//
// 与 Stage 不同：FailureStage 标记的是失败发生在哪一步，
// 只出现在失败结果中。
type FailureStage string

const (
	FailureMailboxCreate  FailureStage = "mailbox_create"  // 临时邮箱创建被上游拒绝
	FailureRegistration   FailureStage = "registration"    // 注册响应包含错误标记
	FailureInbox          FailureStage = "inbox"           // 轮询超时，激活邮件未到达
	FailureActivationLink FailureStage = "activation_link" // 邮件中未找到激活链接
	FailureAborted        FailureStage = "aborted"         // 致命错误（域名列表/令牌交换失败），流程中止
)
