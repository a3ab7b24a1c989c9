package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pierre-chaville/lessons/internal/api"
	apiMiddleware "github.com/pierre-chaville/lessons/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	lessonHandler := api.NewLessonHandler(app.lessonService)
	courseHandler := api.NewCourseHandler(app.courseService)
	themeHandler := api.NewThemeHandler(app.themeService)
	taskHandler := api.NewTaskHandler(app.taskService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/lessons", func(r chi.Router) {
			r.Post("/", lessonHandler.CreateLesson)
			r.Get("/", lessonHandler.ListLessons)
			r.Get("/{id}", lessonHandler.GetLesson)
			r.Put("/{id}", lessonHandler.UpdateLesson)
			r.Delete("/{id}", lessonHandler.DeleteLesson)
			r.Get("/{id}/audio", lessonHandler.GetAudio)
			r.Put("/{id}/audio", lessonHandler.UploadAudio)
			r.Get("/{id}/search", lessonHandler.SearchLesson)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Post("/", courseHandler.CreateCourse)
			r.Get("/", courseHandler.ListCourses)
			r.Get("/{id}", courseHandler.GetCourse)
			r.Put("/{id}", courseHandler.UpdateCourse)
			r.Delete("/{id}", courseHandler.DeleteCourse)
		})

		r.Route("/themes", func(r chi.Router) {
			r.Post("/", themeHandler.CreateTheme)
			r.Get("/", themeHandler.ListThemes)
			r.Get("/{id}", themeHandler.GetTheme)
			r.Put("/{id}", themeHandler.UpdateTheme)
			r.Delete("/{id}", themeHandler.DeleteTheme)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)
			r.Get("/", taskHandler.ListTasks)
			r.Get("/{id}", taskHandler.GetTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
