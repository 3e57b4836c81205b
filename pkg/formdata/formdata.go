// Package formdata 实现multipart/form-data请求体的手工解码。
//
// 移动端上传报告时混合文本字段和一个可选的二进制image字段，
// 解码器对格式错误的输入从不报错，只是跳过无法解析的部分。
package formdata

import (
	"bytes"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// ImageFieldName 二进制特殊处理只针对这个字段名
const ImageFieldName = "image"

var (
	namePattern        = regexp.MustCompile(`name="([^"]+)"`)
	contentTypePattern = regexp.MustCompile(`Content-Type:\s*([^\r\n]+)`)
)

// Image 已解码的二进制图片字段
type Image struct {
	Data     []byte // 原始字节，0-255全范围保真
	MIME     string // part头部声明的Content-Type
	Filename string // 合成的存储文件名
}

// Form 解码结果：文本字段映射加上可选的图片
type Form struct {
	Fields map[string]string
	Image  *Image
}

// Get 返回文本字段值，不存在时返回空串
func (f *Form) Get(name string) string {
	return f.Fields[name]
}

// HasImage 判断是否携带了图片字段
func (f *Form) HasImage() bool {
	return f.Image != nil && len(f.Image.Data) > 0
}

// Decode 解码multipart/form-data请求体。
//
// 算法刻意保持宽容：
//   - Content-Type缺少boundary令牌时返回空Form
//   - 没有name=的part被跳过
//   - 没有空行分隔符的part被跳过
//   - 同名字段后者覆盖前者
//
// 只有字段名为image且part带有Content-Type头时才按二进制处理，
// 此时保留原始字节并合成唯一文件名 reporte-<毫秒时间戳>-<9位随机数>.jpg。
func Decode(body []byte, contentType string) *Form {
	form := &Form{Fields: make(map[string]string)}

	idx := strings.Index(contentType, "boundary=")
	if idx < 0 {
		return form
	}
	boundary := contentType[idx+len("boundary="):]
	if boundary == "" {
		return form
	}

	delimiter := []byte("--" + boundary)
	parts := bytes.Split(body, delimiter)

	for _, part := range parts {
		if !bytes.Contains(part, []byte("Content-Disposition: form-data")) {
			continue
		}

		nameMatch := namePattern.FindSubmatch(part)
		if nameMatch == nil {
			continue
		}
		fieldName := string(nameMatch[1])

		// part头部与值之间以空行分隔
		sep := bytes.Index(part, []byte("\r\n\r\n"))
		if sep < 0 {
			continue
		}

		value := part[sep+4:]
		value = bytes.TrimSuffix(value, []byte("\r\n"))

		ctMatch := contentTypePattern.FindSubmatch(part[:sep])
		if fieldName == ImageFieldName && ctMatch != nil {
			raw := make([]byte, len(value))
			copy(raw, value)
			form.Image = &Image{
				Data:     raw,
				MIME:     strings.TrimSpace(string(ctMatch[1])),
				Filename: newUploadName(),
			}
			continue
		}

		form.Fields[fieldName] = strings.TrimSpace(string(value))
	}

	return form
}

// newUploadName 合成唯一的上传文件名
func newUploadName() string {
	return fmt.Sprintf("reporte-%d-%09d.jpg", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
}
