package consts

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

const (
	RoleAdmin = "ADMIN"
)

const (
	DefaultAvatarURL = "default_avatar.png"
)
