// Package web 打包页面模板与静态资源，随二进制一同发布。
package web

import "embed"

// FS 包含 template/ 下的页面模板和 static/ 下的样式文件。
//
//go:embed template/*.html static/*
var FS embed.FS
