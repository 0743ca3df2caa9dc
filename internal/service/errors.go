package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrUserNotFound         = errors.New("用户不存在")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrConversationExpired  = errors.New("会话已过期")
	ErrNotMember            = errors.New("不是会话成员")
	ErrMemberRequired       = errors.New("会话至少需要一名成员")
	ErrDirectSelf           = errors.New("不能与自己建立单聊")
	ErrDirectImmutable      = errors.New("单聊成员不可变更")
	ErrMessageNotFound      = errors.New("消息不存在")
	ErrMessageEmpty         = errors.New("消息内容不能为空")
	ErrMessageTooLong       = errors.New("消息内容过长")
	ErrQuoteCrossConv       = errors.New("只能引用同一会话内的消息")
	ErrMentionNotMember     = errors.New("被提及用户不是会话成员")
	ErrEmojiInvalid         = errors.New("表情无效")
	ErrFileNotSupported     = errors.New("不支持的文件类型")
	ErrFileNotExist         = errors.New("文件不存在")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrUserNotFound:         NotFound,
	ErrConversationNotFound: NotFound,
	ErrConversationExpired:  NotFound,
	ErrNotMember:            Forbidden,
	ErrMemberRequired:       BadRequest,
	ErrDirectSelf:           BadRequest,
	ErrDirectImmutable:      BadRequest,
	ErrMessageNotFound:      NotFound,
	ErrMessageEmpty:         BadRequest,
	ErrMessageTooLong:       BadRequest,
	ErrQuoteCrossConv:       BadRequest,
	ErrMentionNotMember:     BadRequest,
	ErrEmojiInvalid:         BadRequest,
	ErrFileNotSupported:     BadRequest,
	ErrFileNotExist:         NotFound,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}
