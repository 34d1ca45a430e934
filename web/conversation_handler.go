package web

import (
	"net/http"

	"github.com/neighborhq/neighbor/types"
)

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request) {
	pageArgs, err := parsePageArgs(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.Conversations(r.Context(), types.ListConversations{PageArgs: pageArgs})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Conversation(r.Context(), types.RetrieveConversation{
		ConversationID: r.PathValue("conversationID"),
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}

func (h *Handler) directConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OtherUserID string `json:"otherUserID"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.DirectConversation(r.Context(), types.RetrieveDirectConversation{
		OtherUserID: body.OtherUserID,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}

func (h *Handler) createGroupConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string   `json:"name"`
		Description *string  `json:"description"`
		MemberIDs   []string `json:"memberIDs"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.CreateGroupConversation(r.Context(), types.CreateGroupConversation{
		Name:        body.Name,
		Description: body.Description,
		MemberIDs:   body.MemberIDs,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusCreated)
}

func (h *Handler) addParticipant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userID"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	err := h.Service.AddParticipant(r.Context(), types.AddParticipant{
		ConversationID: r.PathValue("conversationID"),
		NewMemberID:    body.UserID,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteConversation(r.Context(), types.DeleteConversation{
		ConversationID: r.PathValue("conversationID"),
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) updateConversationSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pinned   *bool `json:"pinned"`
		Muted    *bool `json:"muted"`
		Archived *bool `json:"archived"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.UpdateMetadata(r.Context(), types.UpdateParticipantSettings{
		ConversationID: r.PathValue("conversationID"),
		Pinned:         body.Pinned,
		Muted:          body.Muted,
		Archived:       body.Archived,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}
