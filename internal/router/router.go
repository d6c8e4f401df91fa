package router

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/babytracker/internal/handler"
	"github.com/babytracker/internal/logging"
	"github.com/babytracker/internal/view"
	"github.com/babytracker/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionName = "babytracker_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, logger *zap.Logger, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))

	// 配置会话中间件，只用于闪存消息；登录态由 auth_tkt 票据承载
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.Tickets().Identify(api.Services()))

	// 模板与静态资源都从内嵌文件系统加载
	tmpl := template.Must(template.New("").Funcs(view.FuncMap(api.Location())).ParseFS(web.FS, "template/*.html"))
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// JSON API 与站点共用同一棵资源树
	apiGroup := r.Group(handler.APIPrefix)
	apiGroup.Use(handler.CORS())
	apiGroup.Any("/*path", api.ServeAPI)

	// 其余路径都交给 HTML 站点遍历
	r.NoRoute(api.ServeSite)

	return r
}
