package chat

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"focuswatch/app/client/httpapi"

	"github.com/google/uuid"
)

const (
	autoIDPrefix = "auto_"
	noAnswer     = "Cevap alınamadı"
)

type Message struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Timestamp     time.Time `json:"timestamp"`
	IsAutoMessage bool      `json:"isAutoMessage,omitempty"`
	AlertType     string    `json:"alertType,omitempty"`
}

func newID(auto bool) string {
	if auto {
		return autoIDPrefix + uuid.NewString()
	}

	return uuid.NewString()
}

// ExplainError turns a failed ask into the text shown in place of an answer.
func ExplainError(err error, agentURL string) string {
	var transportErr *httpapi.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("AI Agent servisine bağlanılamıyor. Lütfen %s servisinin çalıştığından emin olun.", agentURL)
	}

	var requestErr *httpapi.RequestError
	if errors.As(err, &requestErr) {
		switch requestErr.StatusCode {
		case http.StatusNotFound:
			return "AI Agent endpoint'i bulunamadı. /ask endpoint'inin mevcut olduğundan emin olun."
		case http.StatusInternalServerError:
			return "AI Agent servisinde bir hata oluştu. Lütfen sunucu loglarını kontrol edin."
		}
	}

	return "Üzgünüm, şu anda bir sorun yaşıyorum. Lütfen daha sonra tekrar deneyin."
}
