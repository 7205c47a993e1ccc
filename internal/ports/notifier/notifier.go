package notifier

import "context"

// Kind clasifica el resultado de un envío.
type Kind string

const (
	KindSent               Kind = "sent"
	KindAuth               Kind = "auth"
	KindNetwork            Kind = "network"
	KindMalformedRecipient Kind = "malformed_recipient"
	KindConfig             Kind = "config"
	KindUnknown            Kind = "unknown"
)

// Message es el contenido de una notificación en texto plano.
type Message struct {
	// ID se usa como Message-ID y para correlacionar logs.
	ID      string
	Subject string
	Body    string
}

// Result nunca se "lanza": el caller decide qué hacer con él.
type Result struct {
	Kind Kind
	Err  error
}

func Sent() Result {
	return Result{Kind: KindSent}
}

func Failed(kind Kind, err error) Result {
	return Result{Kind: kind, Err: err}
}

func (r Result) OK() bool {
	return r.Kind == KindSent
}

// Retryable: solo los fallos de red tienen sentido reintentarlos.
func (r Result) Retryable() bool {
	return r.Kind == KindNetwork
}

func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Notifier envía un resumen best-effort.
type Notifier interface {
	Notify(ctx context.Context, msg Message) Result
}

// Unavailable es el Notifier que se usa cuando la configuración es inválida:
// cada envío falla con KindConfig y Reason como causa.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Notify(ctx context.Context, msg Message) Result {
	return Failed(KindConfig, u.Reason)
}
