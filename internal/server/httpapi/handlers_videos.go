package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/server/forms"
)

func videosURL(ownerID int64) string {
	return fmt.Sprintf("/profile/%d/videos", ownerID)
}

// listVideos is open to every authenticated account.
func (s *Server) listVideos(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	profile, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	videos, err := s.videos.ListByOwner(ctx, profile.ID)
	if err != nil {
		return err
	}

	data := s.page(c, profile.Username+"'s videos")
	data.Profile = profile
	data.Videos = videos
	return c.Render(http.StatusOK, "videos", data)
}

func (s *Server) newVideoPage(c echo.Context) error {
	data := s.page(c, "New video")
	data.Profile = currentAccount(c)
	data.Form = forms.VideoForm{}
	return c.Render(http.StatusOK, "video_new", data)
}

func (s *Server) createVideo(c echo.Context) error {
	ctx := c.Request().Context()
	account := currentAccount(c)

	form := forms.VideoForm{
		Content:   c.FormValue("video"),
		Confirmed: c.FormValue("confirmed"),
	}
	form.Normalize()

	data := s.page(c, "New video")
	data.Profile = account
	data.Form = form

	if errs := form.Validate(); !errs.Empty() {
		data.Errors = errs
		return c.Render(http.StatusOK, "video_new", data)
	}

	video, err := s.videos.Create(ctx, form.Content, form.IsConfirmed(), account.ID)
	if errors.Is(err, common.ErrorValidation) {
		data.Message = err.Error()
		return c.Render(http.StatusOK, "video_new", data)
	}
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "video created", "account_id", account.ID, "video_id", video.ID)

	return c.Redirect(http.StatusSeeOther, videosURL(account.ID))
}

func (s *Server) showVideo(c echo.Context) error {
	video := currentVideo(c)

	data := s.page(c, "Video")
	data.Profile = currentAccount(c)
	data.Video = video
	return c.Render(http.StatusOK, "video", data)
}

func (s *Server) editVideoPage(c echo.Context) error {
	video := currentVideo(c)

	data := s.page(c, "Edit video")
	data.Profile = currentAccount(c)
	data.Video = video
	data.Form = forms.VideoForm{Content: video.Content}
	return c.Render(http.StatusOK, "video_edit", data)
}

func (s *Server) updateVideo(c echo.Context) error {
	ctx := c.Request().Context()
	account := currentAccount(c)
	video := currentVideo(c)

	form := forms.VideoForm{Content: c.FormValue("video")}
	form.Normalize()

	data := s.page(c, "Edit video")
	data.Profile = account
	data.Video = video
	data.Form = form

	if errs := form.ValidateContent(); !errs.Empty() {
		data.Errors = errs
		return c.Render(http.StatusOK, "video_edit", data)
	}

	if _, err := s.videos.Update(ctx, video, form.Content); err != nil {
		if errors.Is(err, common.ErrorValidation) {
			data.Message = err.Error()
			return c.Render(http.StatusOK, "video_edit", data)
		}
		return err
	}

	return c.Redirect(http.StatusSeeOther, videosURL(account.ID))
}

func (s *Server) deleteVideo(c echo.Context) error {
	ctx := c.Request().Context()
	account := currentAccount(c)
	video := currentVideo(c)

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		return err
	}

	s.logger.Info(ctx, "video deleted", "account_id", account.ID, "video_id", video.ID)

	return c.Redirect(http.StatusSeeOther, videosURL(account.ID))
}
