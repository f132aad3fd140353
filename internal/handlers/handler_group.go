package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// groupHandler handles group and membership requests.
type groupHandler struct {
	groupService portssvc.GroupSvcFacade
	reconciler   portssvc.ReconcilerSvc
}

func newGroupHandler(gs portssvc.GroupSvcFacade, reconciler portssvc.ReconcilerSvc) *groupHandler {
	return &groupHandler{
		groupService: gs,
		reconciler:   reconciler,
	}
}

// registerGroupRoutes registers group routes and returns the /groups/:groupID subgroup
// so ledger routes can hang off it.
func registerGroupRoutes(rg *gin.RouterGroup, groupService portssvc.GroupSvcFacade, reconciler portssvc.ReconcilerSvc) *gin.RouterGroup {
	h := newGroupHandler(groupService, reconciler)

	groups := rg.Group("/groups")
	groups.POST("", h.createGroup)

	group := groups.Group("/:groupID")
	{
		group.GET("", h.getGroup)
		group.GET("/members", h.listMembers)
		group.POST("/members", h.addMember)
		group.DELETE("/members/:memberID", h.removeMember)
		group.POST("/members/:memberID/reconcile", h.reconcileMember)
	}
	return group
}

// createGroup godoc
// @Summary Create a group
// @Description Creates an expense-sharing group. The creator becomes its admin.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   group body dto.CreateGroupRequest true "Group details"
// @Success 201 {object} dto.GroupResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Security BearerAuth
// @Router /groups [post]
func (h *groupHandler) createGroup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	creatorUserID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create group")
		return
	}

	logger.Info("Group created", slog.String("group_id", group.GroupID))
	c.JSON(http.StatusCreated, dto.ToGroupResponse(group))
}

// getGroup godoc
// @Summary Get a group
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 403 {object} errorResponse "Not a member"
// @Failure 404 {object} errorResponse "Group not found"
// @Security BearerAuth
// @Router /groups/{groupID} [get]
func (h *groupHandler) getGroup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")

	group, err := h.groupService.GetGroup(c.Request.Context(), groupID, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("group_id", groupID)), err, "Failed to get group")
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(group))
}

// listMembers godoc
// @Summary List group members
// @Description Lists current and removed memberships with their reconciliation state
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.ListMembersResponse
// @Failure 403 {object} errorResponse "Not a member"
// @Security BearerAuth
// @Router /groups/{groupID}/members [get]
func (h *groupHandler) listMembers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")

	members, err := h.groupService.ListMembers(c.Request.Context(), groupID, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("group_id", groupID)), err, "Failed to list members")
		return
	}
	c.JSON(http.StatusOK, dto.ToListMembersResponse(members))
}

// addMember godoc
// @Summary Add a member
// @Description Adds a user to the group. Admin only.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   member body dto.AddMemberRequest true "Member details"
// @Success 201 {object} dto.MemberResponse
// @Failure 403 {object} errorResponse "Not an admin"
// @Failure 409 {object} errorResponse "Already a member or pending reconciliation"
// @Security BearerAuth
// @Router /groups/{groupID}/members [post]
func (h *groupHandler) addMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	logger = logger.With(slog.String("group_id", groupID), slog.String("member_id", req.UserID))

	member, err := h.groupService.AddMember(c.Request.Context(), groupID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to add member")
		return
	}

	logger.Info("Member added")
	c.JSON(http.StatusCreated, dto.ToMemberResponse(member))
}

// removeMember godoc
// @Summary Remove a member
// @Description Removes a member. Their outstanding debts are written off asynchronously.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   memberID path string true "Member user ID"
// @Success 202 {object} dto.MemberResponse
// @Failure 403 {object} errorResponse "Not allowed"
// @Failure 404 {object} errorResponse "Not a current member"
// @Failure 409 {object} errorResponse "Last admin cannot leave"
// @Security BearerAuth
// @Router /groups/{groupID}/members/{memberID} [delete]
func (h *groupHandler) removeMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	memberID := c.Param("memberID")
	logger = logger.With(slog.String("group_id", groupID), slog.String("member_id", memberID))

	member, err := h.groupService.RemoveMember(c.Request.Context(), groupID, memberID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to remove member")
		return
	}

	logger.Info("Member removed, reconciliation scheduled")
	c.JSON(http.StatusAccepted, dto.ToMemberResponse(member))
}

// reconcileMember godoc
// @Summary Re-run reconciliation for a removed member
// @Description Writes off the member's remaining debts synchronously. Admin only.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   memberID path string true "Member user ID"
// @Success 200 {object} dto.MemberResponse
// @Failure 403 {object} errorResponse "Not an admin"
// @Failure 404 {object} errorResponse "Member not found"
// @Security BearerAuth
// @Router /groups/{groupID}/members/{memberID}/reconcile [post]
func (h *groupHandler) reconcileMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	memberID := c.Param("memberID")
	logger = logger.With(slog.String("group_id", groupID), slog.String("member_id", memberID))
	ctx := c.Request.Context()

	if err := h.groupService.AuthorizeMember(ctx, userID, groupID, domain.RoleAdmin); err != nil {
		respondWithError(c, logger, err, "Failed to authorize reconciliation")
		return
	}
	if err := h.reconciler.OnMemberRemoved(ctx, groupID, memberID); err != nil {
		respondWithError(c, logger, err, "Failed to reconcile member")
		return
	}

	members, err := h.groupService.ListMembers(ctx, groupID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to load member")
		return
	}
	for i := range members {
		if members[i].UserID == memberID {
			logger.Info("Member reconciled", slog.String("state", string(members[i].ReconciliationState)))
			c.JSON(http.StatusOK, dto.ToMemberResponse(&members[i]))
			return
		}
	}
	c.JSON(http.StatusNotFound, errorResponse{Error: "member " + memberID + " not found", Code: "not_found"})
}
