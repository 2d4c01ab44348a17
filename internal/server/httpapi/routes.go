package httpapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) routes() {
	e := s.echo

	// HTML forms can only POST; "_method" selects PATCH or DELETE.
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger())
	e.Use(s.observe)
	e.Use(middleware.Recover())
	if s.requestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: s.requestTimeout}))
	}
	e.Use(s.loadSession())

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	e.GET("/", s.index)
	e.GET("/signup", s.signupPage)
	e.POST("/signup", s.signup)
	e.GET("/login", s.loginPage)
	e.POST("/login", s.login)
	e.GET("/logout", s.logout)

	p := e.Group("/profile/:id", s.requireAuth)

	p.GET("", s.showProfile, s.requireOwner)
	p.PATCH("", s.updateProfile, s.requireOwner)
	p.DELETE("", s.deleteProfile, s.requireOwner)
	p.GET("/edit", s.editProfilePage, s.requireOwner)
	p.POST("/edit", s.updateProfile, s.requireOwner)
	p.GET("/export", s.exportProfile, s.requireOwner)

	p.GET("/videos", s.listVideos)
	p.GET("/videos/new", s.newVideoPage, s.requireOwner)
	p.POST("/videos/new", s.createVideo, s.requireOwner)
	p.GET("/videos/:vid", s.showVideo, s.requireOwner, s.loadVideo)
	p.PATCH("/videos/:vid", s.updateVideo, s.requireOwner, s.loadVideo)
	p.DELETE("/videos/:vid", s.deleteVideo, s.requireOwner, s.loadVideo)
	p.GET("/videos/:vid/edit", s.editVideoPage, s.requireOwner, s.loadVideo)
	p.POST("/videos/:vid/edit", s.updateVideo, s.requireOwner, s.loadVideo)
}
