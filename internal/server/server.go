// Package server wires stores, handlers, and middleware into the HTTP
// router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"larder/internal/backup"
	"larder/internal/email"
	"larder/internal/handler"
	"larder/internal/middleware"
	"larder/internal/push"
	"larder/internal/store"
	ws "larder/internal/websocket"
)

// Config carries the server-level settings read from the environment.
type Config struct {
	SessionTTL time.Duration
	Backup     backup.Config
	VAPID      VAPIDConfig
}

// VAPIDConfig holds the web-push key pair and contact address.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	groceryH      *handler.GroceryHandler
	masterH       *handler.MasterHandler
	shareH        *handler.ShareHandler
	tagH          *handler.TagHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)
	demoStore := store.NewDemoStore(db)
	masterStore := store.NewMasterStore(db)
	groceryStore := store.NewGroceryStore(db, logger.With("component", "grocery_store"))
	shareStore := store.NewShareStore(db, logger.With("component", "share_store"))
	tagStore := store.NewTagStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	pushSvc := push.NewService(cfg.VAPID.PublicKey, cfg.VAPID.PrivateKey, cfg.VAPID.Subscriber)
	var notifier *push.Notifier
	if pushSvc.Configured() {
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
	}

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger.With("component", "backup"), func(st backup.Status) {
		hub.Broadcast(ws.Message{Type: "backup_status", Entity: "backup", Action: string(st.State)})
	})

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, demoStore, logger.With("component", "auth")),
		groceryH:      handler.NewGroceryHandler(groceryStore, hub, logger.With("component", "grocery")),
		masterH:       handler.NewMasterHandler(masterStore, hub, logger.With("component", "master")),
		shareH:        handler.NewShareHandler(shareStore, groceryStore, emailClient, notifier, hub, logger.With("component", "share")),
		tagH:          handler.NewTagHandler(tagStore, logger.With("component", "tag")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// BackupManager returns the backup manager so main can run its schedule.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /auth/register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /auth/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("POST /auth/demo", s.rateLimited(s.authH.DemoLogin))
	outerMux.HandleFunc("POST /auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind the bearer-token middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/user", s.authH.Me)

	// Grocery lists
	mux.HandleFunc("GET /grocery-lists", s.groceryH.ListLists)
	mux.HandleFunc("POST /grocery-lists", s.groceryH.CreateList)
	mux.HandleFunc("PUT /grocery-lists/{listId}", s.groceryH.RenameList)
	mux.HandleFunc("DELETE /grocery-lists/{listId}", s.groceryH.DeleteList)

	// Sharing. The shared/* routes are registered before {listId} matching
	// matters: ServeMux prefers the more specific literal segment.
	mux.HandleFunc("POST /grocery-lists/{listId}/share", s.shareH.Create)
	mux.HandleFunc("PUT /grocery-lists/shared/{shareId}", s.shareH.Respond)
	mux.HandleFunc("GET /grocery-lists/shared/pending", s.shareH.ListPending)
	mux.HandleFunc("GET /grocery-lists/shared/accepted", s.shareH.ListAccepted)

	// List items
	mux.HandleFunc("GET /grocery-lists/{listId}/items", s.groceryH.ListItems)
	mux.HandleFunc("POST /grocery-lists/{listId}/items", s.groceryH.AddItem)
	mux.HandleFunc("PUT /grocery-lists/{listId}/items/{itemId}", s.groceryH.UpdateItem)
	mux.HandleFunc("DELETE /grocery-lists/{listId}/items/{itemId}", s.groceryH.DeleteItem)

	// Master catalog
	mux.HandleFunc("GET /master-list", s.masterH.Get)
	mux.HandleFunc("GET /master-list/items", s.masterH.ListItems)
	mux.HandleFunc("POST /master-list/items", s.masterH.AddItem)
	mux.HandleFunc("PUT /master-list/items/{itemId}", s.masterH.UpdateItem)
	mux.HandleFunc("DELETE /master-list/items/{itemId}", s.masterH.DeleteItem)
	mux.HandleFunc("GET /master-list/suggest", s.masterH.SuggestTag)

	// Tags
	mux.HandleFunc("GET /tags", s.tagH.List)
	mux.HandleFunc("DELETE /tags/{text}", s.tagH.Delete)

	// Push notifications
	mux.HandleFunc("POST /push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /push/subscriptions/{id}", s.pushH.DeleteSubscription)
	mux.HandleFunc("GET /push/vapid-key", s.pushH.VAPIDKey)

	// Backups
	mux.HandleFunc("GET /backups", s.backupH.List)
	mux.HandleFunc("POST /backups", s.backupH.RunNow)
	mux.HandleFunc("GET /backups/{id}/download", s.backupH.Download)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "ws_handler")))
}
