// Package v1 exposes the REST API: the chat endpoint that drives the agent
// and the conversation read/manage endpoints around it.
package v1

import (
	"github.com/labstack/echo/v5"

	"github.com/taskchat/taskchat/agent"
	"github.com/taskchat/taskchat/server/profile"
	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Tasks   *service.TaskService
	Chat    *service.ChatService
	Agent   agent.Agent

	chatLimiter *userLimiter
}

func NewAPIV1Service(p *profile.Profile, st *store.Store, tasks *service.TaskService, chat *service.ChatService, ag agent.Agent) *APIV1Service {
	return &APIV1Service{
		Profile:     p,
		Store:       st,
		Tasks:       tasks,
		Chat:        chat,
		Agent:       ag,
		chatLimiter: newUserLimiter(p.ChatRatePerMinute, p.ChatRateBurst),
	}
}

func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/:userID")
	g.POST("/chat", s.handleChat)
	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:conversationID", s.getConversation)
	g.PATCH("/conversations/:conversationID", s.updateConversation)
	g.DELETE("/conversations/:conversationID", s.deleteConversation)
}
