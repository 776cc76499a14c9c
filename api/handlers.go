package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"baatchit/domain"
	apperrors "baatchit/errors"
	"baatchit/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type sendRequest struct {
	RecipientUID   string        `json:"recipientUid"`
	RecipientEmail string        `json:"recipientEmail"`
	Text           string        `json:"text"`
	Images         []imageUpload `json:"images"`
}

type imageUpload struct {
	Data     string `json:"data"` // base64
	Filename string `json:"filename"`
}

type userDTO struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type contactDTO struct {
	UID             string `json:"uid"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	LastMessage     string `json:"lastMessage"`
	LastMessageTime string `json:"lastMessageTime"`
}

type attachmentDTO struct {
	Images   string `json:"images"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
}

type messageDTO struct {
	ID             string         `json:"id"`
	ChatID         string         `json:"chatId"`
	UID            string         `json:"uid"`
	Email          string         `json:"email"`
	DisplayName    string         `json:"displayName"`
	RecipientUID   string         `json:"recipientUid"`
	Text           string         `json:"text"`
	CreatedAt      time.Time      `json:"createdAt"`
	LocalTimestamp string         `json:"localTimeStamp"`
	IsDeleted      bool           `json:"isDeleted"`
	Attachment     *attachmentDTO `json:"attachment,omitempty"`
}

func toUserDTO(user domain.User) userDTO {
	return userDTO{
		UID:         string(user.UID),
		DisplayName: user.Label(),
		Email:       user.Email,
	}
}

func toContactDTO(contact domain.Contact) contactDTO {
	return contactDTO{
		UID:             string(contact.UID),
		DisplayName:     contact.DisplayName,
		Email:           contact.Email,
		LastMessage:     contact.LastMessage,
		LastMessageTime: contact.LastMessageTime,
	}
}

func toMessageDTO(message domain.Message) messageDTO {
	dto := messageDTO{
		ID:             message.ID.String(),
		ChatID:         string(message.ChatID),
		UID:            string(message.SenderID),
		Email:          message.SenderEmail,
		DisplayName:    message.SenderName,
		RecipientUID:   string(message.RecipientID),
		Text:           message.Text,
		CreatedAt:      message.CreatedAt,
		LocalTimestamp: message.LocalTimestamp,
		IsDeleted:      message.IsDeleted,
	}
	if len(message.Attachments) > 0 {
		attachment := message.Attachments[0]
		dto.Attachment = &attachmentDTO{
			Images:   attachment.EncodedImageData,
			Filename: attachment.Filename,
			Size:     attachment.SizeBytes,
			Type:     attachment.MimeType,
		}
	}
	return dto
}

func toMessageDTOs(messages []domain.Message) []messageDTO {
	dtos := make([]messageDTO, 0, len(messages))
	for _, message := range messages {
		dtos = append(dtos, toMessageDTO(message))
	}
	return dtos
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Register(req.Email, req.Password, req.DisplayName)
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrInvalidPassword):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var (
		found []domain.User
		err   error
	)
	if query == "" {
		found = s.directory.Users()
	} else {
		found, err = s.directory.Search(r.Context(), query, limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
	}

	session := SessionFromRequest(r)
	dtos := make([]userDTO, 0, len(found))
	for _, user := range found {
		// The signed-in user never shows up in their own results
		if session != nil && string(user.UID) == session.UserID {
			continue
		}
		dtos = append(dtos, toUserDTO(user))
	}
	s.writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	snapshot := s.chat.Contacts(domain.UserID(session.UserID)).Snapshot()

	dtos := make([]contactDTO, 0, len(snapshot))
	for _, contact := range snapshot {
		dtos = append(dtos, toContactDTO(contact))
	}
	s.writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	counterpartID := domain.UserID(mux.Vars(r)["userId"])

	messages, err := s.chat.Messages(domain.UserID(session.UserID), counterpartID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageDTOs(messages))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	images := make([]services.Upload, 0, len(req.Images))
	for _, image := range req.Images {
		data, err := base64.StdEncoding.DecodeString(image.Data)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "image data is not valid base64")
			return
		}
		images = append(images, services.Upload{Data: data, Filename: image.Filename})
	}

	recipient, ok := s.directory.Resolve(domain.UserID(req.RecipientUID), req.RecipientEmail)
	if !ok {
		s.writeError(w, http.StatusNotFound, "recipient not found")
		return
	}

	stored, err := s.chat.Send(r.Context(), services.SendCommand{
		SenderID:          domain.UserID(session.UserID),
		SenderEmail:       session.Email,
		SenderDisplayName: session.DisplayName,
		RecipientID:       recipient.UID,
		RecipientEmail:    recipient.Email,
		Text:              req.Text,
		Images:            images,
	})
	switch {
	case errors.Is(err, apperrors.ErrTooManyAttachments):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusCreated, toMessageDTOs(stored))
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(mux.Vars(r)["messageId"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	deleted, err := s.chat.SoftDelete(r.Context(), messageID)
	switch {
	case errors.Is(err, apperrors.ErrMessageNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, toMessageDTO(deleted))
	}
}
