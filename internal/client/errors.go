package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Request failure kinds.
const (
	KindNetwork  = "network"
	KindTimeout  = "timeout"
	KindHTTP     = "http"
	KindDecode   = "decode"
	KindCanceled = "canceled"
)

// RequestError is a failed API call with a French, human readable message.
// Data holds the envelope payload some endpoints still send with an error status.
type RequestError struct {
	Kind    string
	Status  int
	Code    string
	Message string
	Data    json.RawMessage
	Err     error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying automatically.
func (e *RequestError) Transient() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindHTTP:
		return e.Status == http.StatusRequestTimeout || e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsTransient reports whether err is a transient RequestError.
func IsTransient(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Transient()
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

var statusMessages = map[int]string{
	http.StatusBadRequest:            "Requête invalide",
	http.StatusUnauthorized:          "Authentification requise",
	http.StatusForbidden:             "Accès refusé",
	http.StatusNotFound:              "Ressource introuvable",
	http.StatusRequestTimeout:        "Délai de la requête dépassé",
	http.StatusConflict:              "Conflit avec l'état actuel",
	http.StatusRequestEntityTooLarge: "Fichier trop volumineux",
	http.StatusUnsupportedMediaType:  "Type de fichier non supporté",
	http.StatusInternalServerError:   "Erreur interne du serveur",
	http.StatusBadGateway:            "Passerelle invalide",
	http.StatusServiceUnavailable:    "Service temporairement indisponible",
	http.StatusGatewayTimeout:        "Le serveur n'a pas répondu à temps",
}

// StatusMessage returns the French text for an HTTP status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("Erreur HTTP %d", status)
}

func httpError(status int, code, serverMessage string) *RequestError {
	msg := serverMessage
	if msg == "" {
		msg = StatusMessage(status)
	}
	return &RequestError{Kind: KindHTTP, Status: status, Code: code, Message: msg}
}

func transportError(err error) *RequestError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return &RequestError{Kind: KindCanceled, Message: "Requête annulée", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &RequestError{Kind: KindTimeout, Message: "Le serveur ne répond pas (délai dépassé)", Err: err}
	default:
		return &RequestError{Kind: KindNetwork, Message: "Impossible de joindre le serveur : " + err.Error(), Err: err}
	}
}

func decodeError(err error) *RequestError {
	return &RequestError{Kind: KindDecode, Message: "Réponse du serveur invalide", Err: err}
}
