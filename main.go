package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"PingSpace/data/database/mgo/mongoutil"
	"PingSpace/global"
	"PingSpace/logger"
	mid "PingSpace/middleware"
	midsec "PingSpace/middleware/security"
	chathandler "PingSpace/module/chat"
	chatservice "PingSpace/module/chat/service"
	"PingSpace/module/chat/store"
	grouphandler "PingSpace/module/group"
	requesthandler "PingSpace/module/request"
	userhandler "PingSpace/module/user"
	wschat "PingSpace/service/chat"
	jwtsec "PingSpace/tools/security"
)

func main() {
	global.LoadEnv()
	global.ConfigIds()
	mirror := global.ConfigRedis() == nil
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cli, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{
		Uri:      global.Global.MongoURI,
		Database: global.Global.MongoDatabase,
	})
	cancel()
	if err != nil {
		log.Fatalf("mongo connect failed: %v", err)
	}
	defer func() { _ = cli.Close(context.Background()) }()

	stores := store.NewStores(cli)

	// Realtime wiring: one registry, one delivery lane. The fanout runs a
	// single worker so frames reach each recipient in enqueue order, which
	// keeps per-conversation push order aligned with pointer completion.
	mgr := wschat.NewConnManager()
	defer mgr.Close()
	fan := wschat.NewFanout(1, 1024)
	presence := wschat.NewTracker(mgr, fan, mirror)
	dispatcher := wschat.NewDispatcher(mgr, fan)
	wsServer := wschat.NewServer(mgr, presence)

	svc := chatservice.NewChatService(stores.Messages, stores.Groups, stores.Users, dispatcher)

	jwtOpts := jwtsec.DefaultOptions(global.GetJwtSecret())
	mid.ConfigAuth(midsec.Options{JWT: jwtOpts})

	users := userhandler.NewHandler(stores.Users, jwtOpts)
	messages := chathandler.NewHandler(svc)
	groups := grouphandler.NewHandler(stores.Groups, stores.Users, svc)
	requests := requesthandler.NewHandler(stores.Requests, stores.Users, dispatcher)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", wsServer.HandleWS) // ws://host:port/ws?userId=<id>

	auth := mid.RouteOpt{IsAuth: true}
	open := mid.RouteOpt{IsAuth: false}

	mid.POST(r, "/api/auth/signup", users.Signup, open)
	mid.POST(r, "/api/auth/login", users.Login, open)
	mid.POST(r, "/api/auth/logout", users.Logout, auth)
	mid.GET(r, "/api/auth/check", users.Check, auth)

	mid.GET(r, "/api/presence/:id", wsServer.HandlePresence, auth)

	mid.GET(r, "/api/message/users", messages.Sidebar, auth)
	mid.GET(r, "/api/message/chat/:id", messages.GetMessages, auth)
	mid.POST(r, "/api/message/send/:id", messages.SendMessage, auth)

	mid.POST(r, "/api/group/create", groups.Create, auth)
	mid.GET(r, "/api/group/details/:id", groups.Details, auth)
	mid.GET(r, "/api/group/user/all", groups.ListMine, auth)
	mid.PUT(r, "/api/group/name/:id", groups.UpdateName, auth)
	mid.PUT(r, "/api/group/image/:id", groups.UpdateImage, auth)
	mid.PUT(r, "/api/group/add/:id", groups.AddMembers, auth)
	mid.PUT(r, "/api/group/remove/:id", groups.RemoveMembers, auth)
	mid.PUT(r, "/api/group/leave/:id", groups.Leave, auth)
	mid.DELETE(r, "/api/group/delete/:id", groups.Delete, auth)
	mid.GET(r, "/api/group/message/:id", groups.Messages, auth)
	mid.POST(r, "/api/group/message/send", groups.SendMessage, auth)

	mid.POST(r, "/api/request/send", requests.Send, auth)
	mid.PUT(r, "/api/request/accept/:id", requests.Accept, auth)
	mid.DELETE(r, "/api/request/cancel/:id", requests.Cancel, auth)
	mid.PUT(r, "/api/request/reject/:id", requests.Reject, auth)
	mid.DELETE(r, "/api/request/friend/:id", requests.RemoveFriend, auth)

	logger.Infof("[HTTP] listening on :%s", global.Global.Port)
	if err := r.Run(":" + global.Global.Port); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
