package queue

import (
	"encoding/json"
	"errors"

	"github.com/fulfil-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskEmailDispatch 模板邮件投递任务
	TaskEmailDispatch = constants.TaskEmailDispatch
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// EmailDispatchPayload 邮件投递任务载荷，变量在入队时已解析完成
type EmailDispatchPayload struct {
	TemplateName string            `json:"template_name"`
	Recipient    string            `json:"recipient"`
	Variables    map[string]string `json:"variables"`
	OrderID      uint              `json:"order_id,omitempty"`
}

// NewEmailDispatchTask 创建邮件投递任务
func NewEmailDispatchTask(payload EmailDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailDispatch, body), nil
}

// ParseEmailDispatchPayload 解析邮件投递任务载荷
func ParseEmailDispatchPayload(task *asynq.Task) (EmailDispatchPayload, error) {
	var payload EmailDispatchPayload
	if task == nil {
		return payload, errors.New("nil task")
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
