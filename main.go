package main

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"poisonparty/game"
	"poisonparty/shared/configs"
	"poisonparty/shared/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	if configs.Envs.GIN_MODE != "" {
		gin.SetMode(configs.Envs.GIN_MODE)
	}

	allowedOrigins := configs.Envs.ALLOWED_ORIGINS
	if len(allowedOrigins) == 0 {
		logger.Fatal("Missing allowed origins")
	}

	r := CreateServer(allowedOrigins)

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()
	itemCountGen := game.NewItemCountGen()

	registry := game.NewRegistry(&idGen, &tickerGen, &itemCountGen)

	registryStarted := make(chan struct{})
	go registry.RegistryActor(registryStarted)
	<-registryStarted

	gameHandler := game.NewGameHandler(registry, allowedOrigins)
	{
		gameGroup := r.Group("/game")
		gameGroup.GET("/create", gameHandler.CreateRoomHandler)
		gameGroup.GET("/join/:roomid", gameHandler.JoinRoomHandler)
	}

	logger.Infof("listening on :%s", configs.Envs.PORT)
	if err := r.Run(":" + configs.Envs.PORT); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
