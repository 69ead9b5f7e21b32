package public

import "github.com/cartrecovery/internal/provider"

// Handler 公开接口处理器入口
// 说明：挽回链接由邮件直接打开，可匿名访问。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
