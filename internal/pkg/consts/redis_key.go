package consts

const (
	ChatConversationKey = "chat:conversation:"
	ChatUserKey         = "chat:user:"
	MediaTempKey        = "media:temp"
)
