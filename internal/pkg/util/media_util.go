package util

import (
	"io"
	"net/http"

	"github.com/disintegration/imaging"
)

// GetSafeContentType 基于文件头嗅探 MIME 类型，不信任客户端声明
// 读完嗅探字节后把读取位置拨回开头
func GetSafeContentType(f io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// GetImageDimensions 解码图片获取宽高
func GetImageDimensions(f io.ReadSeeker) (int, int, error) {
	img, err := imaging.Decode(f)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	return b.Dx(), b.Dy(), nil
}
