package api

import (
	"database/sql"
	"net/http"

	"github.com/alloro/taskhub/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	tasksHandler := &TasksHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login and liveness.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/tasks/health", tasksHandler.Health)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Tasks: client read path plus per-item operations. Role policy for
	// mutations lives in the task engine; the router only requires a
	// valid session.
	mux.Handle("GET /api/tasks", authMW(http.HandlerFunc(tasksHandler.List)))
	mux.Handle("GET /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Get)))
	mux.Handle("PATCH /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Update)))
	mux.Handle("PATCH /api/tasks/{id}/complete", authMW(http.HandlerFunc(tasksHandler.Complete)))
	mux.Handle("DELETE /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Delete)))

	// Tasks: admin surface.
	mux.Handle("GET /api/tasks/admin/all", authMW(requireAdmin(http.HandlerFunc(tasksHandler.AdminList))))
	mux.Handle("GET /api/tasks/clients", authMW(requireAdmin(http.HandlerFunc(tasksHandler.Clients))))
	mux.Handle("POST /api/tasks", authMW(requireAdmin(http.HandlerFunc(tasksHandler.Create))))
	mux.Handle("PATCH /api/tasks/{id}/category", authMW(requireAdmin(http.HandlerFunc(tasksHandler.Recategorize))))
	mux.Handle("POST /api/tasks/bulk/delete", authMW(requireAdmin(http.HandlerFunc(tasksHandler.BulkDelete))))
	mux.Handle("POST /api/tasks/bulk/status", authMW(requireAdmin(http.HandlerFunc(tasksHandler.BulkStatus))))
	mux.Handle("POST /api/tasks/bulk/approve", authMW(requireAdmin(http.HandlerFunc(tasksHandler.BulkApprove))))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
