// Package console holds the admin console state: the session, the active tab,
// the upload draft and the file listing with its search, filter and pending delete.
package console

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/client"
	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/validation"
)

// State is the authentication state of the console.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// Tab is one section of the authenticated console.
type Tab string

const (
	TabUpload Tab = "upload"
	TabManage Tab = "manage"
	TabStats  Tab = "stats"
)

// Console errors.
var (
	ErrNotAuthenticated = errors.New("Veuillez vous connecter")
	ErrPasswordRequired = errors.New("Veuillez saisir le mot de passe")
	ErrUnknownTab       = errors.New("Onglet inconnu")
	ErrUnknownFile      = errors.New("Fichier introuvable dans la liste")
	ErrNoPendingDelete  = errors.New("Aucune suppression en attente")
)

type adminAPI interface {
	Login(ctx context.Context, password string) (*models.AdminSession, error)
	Logout()
	Upload(ctx context.Context, req client.UploadRequest) (*models.File, error)
	ListAdminFiles(ctx context.Context) ([]models.File, error)
	UpdateFile(ctx context.Context, id string, req dto.UpdateFileRequest) (*models.File, error)
	DeleteFile(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.Stats, error)
	ExportStats(ctx context.Context, format string, w io.Writer) (string, error)
}

// Draft is the upload form.
type Draft struct {
	Form     dto.UploadForm
	Filename string
	MimeType string
	Size     int64

	// Content is rewound before every submit so a failed upload can be resent.
	Content io.ReadSeeker
}

// Filter narrows the manage listing. Empty fields match everything.
type Filter struct {
	Search   string
	Semester string
	Type     string
}

// Console is the admin console. It is not safe for concurrent use.
type Console struct {
	api     adminAPI
	logger  *zap.Logger
	maxSize int64

	state   State
	tab     Tab
	draft   Draft
	files   []models.File
	filter  Filter
	pending string
}

// New returns an unauthenticated console backed by api.
func New(api adminAPI, maxSize int64, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = validation.MaxUploadSize
	}
	return &Console{api: api, logger: logger, maxSize: maxSize, tab: TabUpload}
}

// State returns the authentication state.
func (c *Console) State() State { return c.state }

// Tab returns the active tab.
func (c *Console) Tab() Tab { return c.tab }

// Login opens an admin session. The token only lives in the client's memory.
func (c *Console) Login(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if _, err := c.api.Login(ctx, password); err != nil {
		c.logger.Debug("admin login failed", zap.Error(err))
		return err
	}
	c.state = Authenticated
	c.tab = TabUpload
	return nil
}

// Logout drops the session and every cached view.
func (c *Console) Logout() {
	c.api.Logout()
	c.state = Unauthenticated
	c.tab = TabUpload
	c.draft = Draft{}
	c.files = nil
	c.filter = Filter{}
	c.pending = ""
}

// SelectTab switches the active tab.
func (c *Console) SelectTab(tab Tab) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	switch tab {
	case TabUpload, TabManage, TabStats:
		c.tab = tab
		return nil
	default:
		return ErrUnknownTab
	}
}

func (c *Console) requireAuth() error {
	if c.state != Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}
