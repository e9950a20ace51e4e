// Package storage 把上传文件保存到本地目录并提供列表和下载路径解析。
package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"story4u-backend/errs"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	maxNameLen = 255
	sniffLen   = 3072
)

// AllowedExtensions 允许上传的扩展名
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp3", ".mp4", ".wav", ".pdf"}

// AllowedMIMETypes 允许上传的MIME类型
var AllowedMIMETypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"audio/mpeg",
	"audio/mp3",
	"audio/wav",
	"video/mp4",
	"application/pdf",
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// FileInfo 文件列表中的一项
type FileInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Local 基于本地目录的文件存储
type Local struct {
	dir     string
	baseURL string
	maxSize int64
	newID   func() string
}

// NewLocal 创建本地存储，目录不存在时创建
func NewLocal(dir, baseURL string, maxSize int64) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &Local{
		dir:     abs,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
		newID:   uuid.NewString,
	}, nil
}

// Dir 返回上传目录的绝对路径
func (l *Local) Dir() string { return l.dir }

// URL 返回文件的公开访问地址
func (l *Local) URL(name string) string {
	return l.baseURL + "/resources/static/assets/uploads/" + name
}

// Save 校验扩展名、声明的MIME和嗅探出的内容类型后写入文件，返回保存后的文件名
func (l *Local) Save(original, declared string, size int64, r io.Reader) (string, error) {
	if size > l.maxSize {
		return "", errs.New(errs.InvalidRequest, fmt.Sprintf("File size exceeds the maximum limit of %dMB", l.maxSize>>20))
	}

	ext := strings.ToLower(filepath.Ext(original))
	if !contains(AllowedExtensions, ext) {
		return "", errs.New(errs.InvalidRequest, "Invalid file type. Allowed types: "+strings.Join(AllowedExtensions, ", "))
	}
	if mt, _, err := mime.ParseMediaType(declared); err != nil || !contains(AllowedMIMETypes, strings.ToLower(mt)) {
		return "", errs.New(errs.InvalidRequest, "Invalid file MIME type. Allowed types: "+strings.Join(AllowedMIMETypes, ", "))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errs.New(errs.Internal, "read upload", errs.WithOp("storage.save"), errs.WithErr(err))
	}
	head = head[:n]
	if !sniffAllowed(head) {
		return "", errs.New(errs.InvalidRequest, "File content does not match an allowed type")
	}

	name := SanitizeFilename(original, l.newID())
	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errs.New(errs.Internal, "create upload", errs.WithOp("storage.save"), errs.WithErr(err))
	}
	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), l.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > l.maxSize {
		err = errs.New(errs.InvalidRequest, fmt.Sprintf("File size exceeds the maximum limit of %dMB", l.maxSize>>20))
	}
	if err != nil {
		_ = os.Remove(filepath.Join(l.dir, name))
		if errs.Is(err, errs.InvalidRequest) {
			return "", err
		}
		return "", errs.New(errs.Internal, "write upload", errs.WithOp("storage.save"), errs.WithErr(err))
	}
	return name, nil
}

// List 列出目录中的文件，跳过子目录
func (l *Local) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errs.New(errs.Internal, "Unable to scan files!", errs.WithOp("storage.list"), errs.WithErr(err))
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), URL: l.URL(e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Resolve 把请求的文件名解析为目录内的绝对路径
func (l *Local) Resolve(requested string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + requested))
	if name == "/" || name == "." || name == ".." {
		return "", errs.New(errs.InvalidRequest, "Invalid file name")
	}
	path := filepath.Join(l.dir, name)
	if !strings.HasPrefix(path, l.dir+string(filepath.Separator)) {
		return "", errs.New(errs.Forbidden, "Access denied. Invalid file path.")
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", errs.New(errs.NotFound, "File not found.")
	}
	return path, nil
}

// SanitizeFilename 只保留基本文件名，替换危险字符并追加唯一后缀
func SanitizeFilename(original, suffix string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "file"
	}
	if limit := maxNameLen - len(ext) - len(suffix) - 1; len(stem) > limit {
		stem = stem[:limit]
	}
	return stem + "_" + suffix + ext
}

func sniffAllowed(head []byte) bool {
	detected := mimetype.Detect(head)
	for _, allowed := range AllowedMIMETypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
