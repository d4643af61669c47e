package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// mp4Brands MP4 容器的常见 major brand
var mp4Brands = [][]byte{
	[]byte("isom"),
	[]byte("iso2"),
	[]byte("mp41"),
	[]byte("mp42"),
	[]byte("avc1"),
	[]byte("M4V "),
}

// validateVideoFile 检查渲染产物是否是有效的 MP4
// 大小超出范围或头部不含 ftyp box 视为渲染失败
func validateVideoFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat video file: %w", err)
	}

	size := info.Size()
	if size < MinVideoSizeBytes {
		return fmt.Errorf("video file %d bytes is below minimum %d bytes, render likely produced empty output",
			size, MinVideoSizeBytes)
	}
	if size > MaxVideoSizeBytes {
		return fmt.Errorf("video file %d bytes exceeds maximum allowed size %d bytes",
			size, MaxVideoSizeBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read video header: %w", err)
	}

	// MP4 头部结构: 4 字节 box 大小 + "ftyp" + major brand
	if !bytes.Equal(header[4:8], []byte("ftyp")) {
		return fmt.Errorf("file is not a valid MP4 container")
	}

	brand := header[8:12]
	for _, known := range mp4Brands {
		if bytes.Equal(brand, known) {
			return nil
		}
	}

	// 未知 brand 不直接拒绝，ftyp box 存在即认为可播放
	return nil
}
