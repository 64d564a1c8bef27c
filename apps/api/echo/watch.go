package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/playlist"
	"github.com/trezcool/mafunzo/core/video"
	"github.com/trezcool/mafunzo/core/watch"
)

type (
	watchAPIDeps struct {
		videoSvc video.Service
		watchSvc watch.Service
		sessions *watch.SessionManager
		logger   core.Logger
	}

	watchApi struct {
		deps watchAPIDeps
	}
)

func registerWatchAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps watchAPIDeps) {
	api := watchApi{deps: deps}

	g.GET("/playlist", api.playlist, jwt)

	wg := g.Group("/watch", jwt)
	wg.GET("/history", api.history)

	sg := wg.Group("/sessions")
	sg.POST("", api.open)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.end)
	dg.POST("/start", api.start)
	dg.POST("/tick", api.tick)
	dg.POST("/seek", api.seek)
	dg.POST("/play", api.play)
	dg.POST("/pause", api.pause)
	dg.POST("/ended", api.ended)
	dg.POST("/next", api.next)
	dg.POST("/previous", api.previous)
}

// playlist returns the assembled modules with the per-video unlock state of
// the requesting user.
func (api *watchApi) playlist(ctx echo.Context) error {
	c := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	modules, err := api.assemble(ctx)
	if err != nil {
		return err
	}
	completed, err := api.deps.watchSvc.CompletedVideoIDs(c, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying completed videos")
	}
	state := watch.ComputeInitialState(modules, completed)

	return ctx.JSON(http.StatusOK, newPlaylistResponse(modules, state))
}

func (api *watchApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	events, err := api.deps.watchSvc.History(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying watch history")
	}
	if events == nil {
		events = []watch.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *watchApi) open(ctx echo.Context) error {
	c := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data OpenSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OpenSessionRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	videos, err := api.deps.videoSvc.Query(c, nil)
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	orders, err := api.deps.videoSvc.CategoryOrders(c)
	if err != nil {
		return errors.Wrap(err, "querying category orders")
	}

	sess, err := api.deps.sessions.Open(c, claims.Subject, data.VideoID, videos, orders)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newSessionResponse(sess))
}

func (api *watchApi) retrieve(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess))
}

func (api *watchApi) end(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err := api.deps.sessions.End(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *watchApi) start(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}

	var data OpenSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OpenSessionRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := sess.Start(ctx.Request().Context(), data.VideoID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess))
}

func (api *watchApi) tick(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}

	var data TickRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TickRequest")
	}

	if err := sess.Tick(ctx.Request().Context(), data.CurrentTime, data.Duration); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *watchApi) seek(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}

	var data SeekRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SeekRequest")
	}

	res, err := sess.Seek(ctx.Request().Context(), data.To)
	if err != nil {
		if errors.Cause(err) == watch.ErrSeekForbidden {
			// rejected: report the clamped position to the player
			return ctx.JSON(http.StatusForbidden, res)
		}
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *watchApi) play(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	if err := sess.Play(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *watchApi) pause(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	if err := sess.Pause(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *watchApi) ended(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	state, err := sess.Ended(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StateResponse{State: state})
}

func (api *watchApi) next(ctx echo.Context) error     { return api.navigate(ctx, +1) }
func (api *watchApi) previous(ctx echo.Context) error { return api.navigate(ctx, -1) }

func (api *watchApi) navigate(ctx echo.Context, offset int) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	if _, err := sess.Navigate(ctx.Request().Context(), offset); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess))
}

func (api *watchApi) session(ctx echo.Context) (*watch.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, err
	}
	return api.deps.sessions.Get(ctx.Param("id"), claims.Subject)
}

func (api *watchApi) assemble(ctx echo.Context) ([]playlist.Module, error) {
	c := ctx.Request().Context()

	videos, err := api.deps.videoSvc.Query(c, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	orders, err := api.deps.videoSvc.CategoryOrders(c)
	if err != nil {
		return nil, errors.Wrap(err, "querying category orders")
	}
	return playlist.Assemble(videos, orders), nil
}

type (
	OpenSessionRequest struct {
		VideoID string `json:"video_id" validate:"required"`
	}

	TickRequest struct {
		CurrentTime float64 `json:"current_time"`
		Duration    float64 `json:"duration"`
	}

	SeekRequest struct {
		From float64 `json:"from"` // informational; gating uses the tracked position
		To   float64 `json:"to"`
	}

	StateResponse struct {
		State watch.UnlockState `json:"state"`
	}

	VideoStateResponse struct {
		video.Video
		State watch.State `json:"state"`
	}

	ModuleResponse struct {
		Name     string               `json:"name"`
		Category string               `json:"category"`
		Videos   []VideoStateResponse `json:"videos"`
	}

	SessionResponse struct {
		ID             string            `json:"id"`
		CurrentVideo   string            `json:"current_video"`
		ResumePosition float64           `json:"resume_position"`
		State          watch.UnlockState `json:"state"`
		Modules        []ModuleResponse  `json:"modules"`
	}
)

func (osr *OpenSessionRequest) Validate() error {
	return core.Validate.Struct(osr)
}

func newPlaylistResponse(modules []playlist.Module, state watch.UnlockState) []ModuleResponse {
	res := make([]ModuleResponse, 0, len(modules))
	for _, mod := range modules {
		videos := make([]VideoStateResponse, 0, len(mod.Videos))
		for _, vid := range mod.Videos {
			videos = append(videos, VideoStateResponse{Video: vid, State: state[vid.ID]})
		}
		res = append(res, ModuleResponse{Name: mod.Name, Category: mod.Category, Videos: videos})
	}
	return res
}

func newSessionResponse(sess *watch.Session) SessionResponse {
	state := sess.State()
	return SessionResponse{
		ID:             sess.ID,
		CurrentVideo:   sess.CurrentVideo(),
		ResumePosition: sess.ResumePosition(),
		State:          state,
		Modules:        newPlaylistResponse(sess.Modules, state),
	}
}
