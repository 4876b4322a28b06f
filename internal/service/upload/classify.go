package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"k8s.io/klog/v2"
)

// Kind 上传内容的解析方式
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

var (
	// ErrUnreadableUpload 文件为空或无法按声明的类型读取
	ErrUnreadableUpload = errors.New("unreadable upload")
	// ErrUnsupportedUpload 既不是文本也不是图片
	ErrUnsupportedUpload = errors.New("unsupported upload type")
)

// Payload 交给解析器的上传内容，Text 与 DataURL 二选一
type Payload struct {
	Kind    Kind
	Name    string
	MIME    string
	Text    string
	DataURL string
}

// Classify 判断上传文件按文本还是图片解析
// 声明为 text/* 或扩展名为 .txt/.md 的按文本处理；其余按图片处理，
// 未声明 MIME 时根据内容嗅探
func Classify(filename, declaredMIME string, data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: empty file %q", ErrUnreadableUpload, filename)
	}

	declared := baseMIME(declaredMIME)
	if declared == "application/octet-stream" {
		declared = ""
	}

	if isTextName(filename) || strings.HasPrefix(declared, "text/") {
		if !utf8.Valid(data) {
			return Payload{}, fmt.Errorf("%w: %q is not valid UTF-8 text", ErrUnreadableUpload, filename)
		}
		klog.V(6).Infof("[Upload.Classify] 按文本处理: name=%s, mime=%s, size=%d", filename, declared, len(data))
		return Payload{Kind: KindText, Name: filename, MIME: "text/plain", Text: string(data)}, nil
	}

	sniffed := mimetype.Detect(data)
	mt := declared
	if mt == "" {
		mt = baseMIME(sniffed.String())
		if strings.HasPrefix(mt, "text/") {
			klog.V(6).Infof("[Upload.Classify] 嗅探为文本: name=%s, mime=%s", filename, mt)
			return Payload{Kind: KindText, Name: filename, MIME: "text/plain", Text: string(data)}, nil
		}
	}
	if !strings.HasPrefix(mt, "image/") {
		return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedUpload, mt)
	}

	klog.V(6).Infof("[Upload.Classify] 按图片处理: name=%s, mime=%s, sniffed=%s, size=%d", filename, mt, sniffed.String(), len(data))
	return Payload{
		Kind:    KindImage,
		Name:    filename,
		MIME:    mt,
		DataURL: DataURL(mt, data),
	}, nil
}

// DataURL 把二进制内容编码为 data URL
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func isTextName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func baseMIME(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}
