package usecase

import (
	"errors"

	"github.com/example/nail-salon/internal/imageprocessor"
)

// NoticeKind classifies a notice shown to the user.
type NoticeKind string

const (
	NoticePermissionDenied NoticeKind = "permission_denied"
	NoticeServerError      NoticeKind = "server_error"
	NoticeTransportError   NoticeKind = "transport_error"
)

// Action is a choice offered alongside a notice.
type Action string

const (
	ActionDismiss      Action = "dismiss"
	ActionCancel       Action = "cancel"
	ActionOpenSettings Action = "open_settings"
)

// Notice is a transient, dismissible message.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
	Actions []Action
}

const (
	msgPermissionTitle = "Permission Required"
	msgPermission      = "Camera permission denied. Please allow camera access."
	msgServerError     = "Image upload failed. Server error."
	msgTransportPrefix = "Error occurred while uploading image: "
)

func permissionNotice() *Notice {
	return &Notice{
		Kind:    NoticePermissionDenied,
		Title:   msgPermissionTitle,
		Message: msgPermission,
		Actions: []Action{ActionCancel, ActionOpenSettings},
	}
}

func uploadNotice(err error) *Notice {
	var serverErr *imageprocessor.ServerError
	if errors.As(err, &serverErr) {
		return &Notice{Kind: NoticeServerError, Message: msgServerError, Actions: []Action{ActionDismiss}}
	}

	detail := err.Error()
	var transportErr *imageprocessor.TransportError
	if errors.As(err, &transportErr) {
		detail = transportErr.Detail
	}
	return &Notice{Kind: NoticeTransportError, Message: msgTransportPrefix + detail, Actions: []Action{ActionDismiss}}
}

func (s *Session) setNotice(n *Notice) {
	s.mu.Lock()
	s.notice = n
	s.mu.Unlock()
}

// Notice returns the pending notice, or nil.
func (s *Session) Notice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// DismissNotice clears the pending notice.
func (s *Session) DismissNotice() {
	s.setNotice(nil)
}

// PreviewKind names what the image area currently shows.
type PreviewKind string

const (
	PreviewPlaceholder PreviewKind = "placeholder"
	PreviewCaptured    PreviewKind = "captured"
	PreviewProcessed   PreviewKind = "processed"
	PreviewLoading     PreviewKind = "loading"
)

// Preview is the content of the image area. Data is nil for the placeholder
// and loading states.
type Preview struct {
	Kind PreviewKind
	Data []byte
}

// Preview resolves the image area: loading first, then the processed
// result, then the captured photo, then the placeholder.
func (s *Session) Preview() Preview {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.loading:
		return Preview{Kind: PreviewLoading}
	case s.processed != nil:
		return Preview{Kind: PreviewProcessed, Data: s.processed}
	case s.image != nil:
		return Preview{Kind: PreviewCaptured, Data: s.image.Data}
	default:
		return Preview{Kind: PreviewPlaceholder}
	}
}
