package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/auth"
	"github.com/Perismakworo/Shesecure2/internal/auth/middleware"
	circlehttp "github.com/Perismakworo/Shesecure2/internal/circles/http"
	lochttp "github.com/Perismakworo/Shesecure2/internal/locations/http"
	"github.com/Perismakworo/Shesecure2/internal/pushtokens"
	soshttp "github.com/Perismakworo/Shesecure2/internal/sos/http"
)

type V1Deps struct {
	Logger     *zap.Logger
	Verifier   auth.TokenVerifier
	Users      auth.UserEnsurer
	Circles    circlehttp.CircleService
	Locations  lochttp.LocationService
	PushTokens pushtokens.Saver
	SOS        soshttp.Engine
}

// RegisterV1 mounts every authenticated endpoint at the root of r. The
// mobile client calls them without a version prefix.
func RegisterV1(r gin.IRouter, dep V1Deps) {
	api := r.Group("")
	api.Use(middleware.RequireBearer(dep.Verifier))
	api.Use(auth.WithUser(dep.Users, dep.Logger))

	circlehttp.New(dep.Circles, dep.Logger).Register(api)
	lochttp.New(dep.Locations, dep.Logger).Register(api)
	pushtokens.Register(api, dep.PushTokens, dep.Logger)
	soshttp.New(dep.SOS, dep.Logger).Register(api)
}
