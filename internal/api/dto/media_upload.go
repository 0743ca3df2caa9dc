package dto

// MediaTempMetadata 临时媒体文件元数据，用于过期清理
type MediaTempMetadata struct {
	MimeType  string `json:"mime_type"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
}
