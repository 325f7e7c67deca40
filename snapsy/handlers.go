// snapsy/handlers.go
package snapsy

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionKeyUser  = "handle"
	sessionKeyFlash = "flash"

	// multipart form parse buffer; anything larger spills to temp files.
	multipartMemory = 32 << 20
)

type Handlers struct {
	db        *Database
	media     *MediaStore
	workflow  *Workflow
	assembler *Assembler
	mailer    Mailer
	templates *template.Template
	Session   *scs.SessionManager
}

func NewHandlers(db *Database, media *MediaStore, mailer Mailer, session *scs.SessionManager) (*Handlers, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handlers{
		db:        db,
		media:     media,
		workflow:  NewWorkflow(db, db, db, media),
		assembler: NewAssembler(db, db, media),
		mailer:    mailer,
		templates: tpl,
		Session:   session,
	}, nil
}

func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.home).Methods("GET")
	r.HandleFunc("/login", h.loginPage).Methods("GET")
	r.HandleFunc("/login", h.login).Methods("POST")
	r.HandleFunc("/register", h.register).Methods("POST")
	r.HandleFunc("/logout", h.requireUser(h.logout)).Methods("GET")

	r.HandleFunc("/feed", h.requireUser(h.feed)).Methods("GET")
	r.HandleFunc("/profile", h.requireUser(h.profile)).Methods("GET")
	r.HandleFunc("/upload", h.requireUser(h.upload)).Methods("POST")
	r.HandleFunc("/edit/{id}", h.requireUser(h.editPost)).Methods("POST")
	r.HandleFunc("/update/{id}", h.requireUser(h.updateMedia)).Methods("POST")
	r.HandleFunc("/memory/{id}", h.requireUser(h.setMemory)).Methods("POST")
	r.HandleFunc("/delete/{id}", h.requireUser(h.deletePost)).Methods("POST")
	r.HandleFunc("/comment/{id}", h.requireUser(h.comment)).Methods("POST")
	r.HandleFunc("/comments/{id}", h.requireUser(h.listComments)).Methods("GET")
	r.HandleFunc("/react/{id}", h.requireUser(h.react)).Methods("POST")
	r.HandleFunc("/update-dp", h.requireUser(h.updateDP)).Methods("POST")
	r.HandleFunc("/update-bio", h.requireUser(h.updateBio)).Methods("POST")

	r.HandleFunc("/about", h.about).Methods("GET")
	r.HandleFunc("/projects", h.projects).Methods("GET")
	r.HandleFunc("/contact", h.contactPage).Methods("GET")
	r.HandleFunc("/contact", h.contact).Methods("POST")

	if h.media != nil {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.media.Dir()))))
	}
}

// requireUser resolves the session's handle to a fresh User on every request.
// No cached identity object: if resolution fails the session is torn down and
// the request is redirected to login.
func (h *Handlers) requireUser(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := h.Session.GetString(r.Context(), sessionKeyUser)
		if handle == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		user, err := h.db.GetUserByUsername(r.Context(), handle)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("failed to resolve session user %q: %v", handle, err)
			}
			h.Session.Remove(r.Context(), sessionKeyUser)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		user.Sanitize()
		next(w, r, user)
	}
}

// currentUser is the optional variant for public pages.
func (h *Handlers) currentUser(r *http.Request) *User {
	handle := h.Session.GetString(r.Context(), sessionKeyUser)
	if handle == "" {
		return nil
	}
	user, err := h.db.GetUserByUsername(r.Context(), handle)
	if err != nil {
		return nil
	}
	user.Sanitize()
	return user
}

// --- Public pages ---

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", map[string]any{"User": h.currentUser(r)})
}

func (h *Handlers) about(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about.html", map[string]any{"User": h.currentUser(r)})
}

func (h *Handlers) projects(w http.ResponseWriter, r *http.Request) {
	h.render(w, "projects.html", map[string]any{"User": h.currentUser(r)})
}

func (h *Handlers) contactPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "contact.html", map[string]any{"User": h.currentUser(r)})
}

func (h *Handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", map[string]any{
		"Error": h.Session.PopString(r.Context(), sessionKeyFlash),
	})
}

// --- Auth ---

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	user, err := h.db.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			h.Session.Put(r.Context(), sessionKeyFlash, "Invalid username or password")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.htmlError(w, err)
		return
	}
	h.establishSession(w, r, user)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	in := RegisterInput{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(strings.ToLower(r.FormValue("email"))),
		Fullname: strings.TrimSpace(r.FormValue("fullname")),
		Password: r.FormValue("password"),
	}
	user, err := h.db.RegisterUser(r.Context(), in)
	if err != nil {
		var ve *ValidationError
		if errors.Is(err, ErrDuplicateHandle) || errors.Is(err, ErrDuplicateEmail) || errors.As(err, &ve) {
			h.Session.Put(r.Context(), sessionKeyFlash, err.Error())
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.htmlError(w, err)
		return
	}
	h.establishSession(w, r, user)
}

func (h *Handlers) establishSession(w http.ResponseWriter, r *http.Request, user *User) {
	if err := h.Session.RenewToken(r.Context()); err != nil {
		h.htmlError(w, err)
		return
	}
	h.Session.Put(r.Context(), sessionKeyUser, user.Username)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request, _ *User) {
	if err := h.Session.Destroy(r.Context()); err != nil {
		log.Printf("failed to destroy session: %v", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- Views ---

func (h *Handlers) feed(w http.ResponseWriter, r *http.Request, user *User) {
	posts, err := h.assembler.Feed(r.Context())
	if err != nil {
		h.htmlError(w, err)
		return
	}
	h.render(w, "feed.html", map[string]any{"User": user, "Posts": posts})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request, user *User) {
	view, err := h.assembler.Profile(r.Context(), user.ID)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	h.render(w, "profile.html", view)
}

// --- Post lifecycle ---

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request, user *User) {
	file, hdr, ok := h.multipartFile(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	_, err := h.workflow.Upload(r.Context(), user.ID, file,
		hdr.Filename,
		hdr.Header.Get("Content-Type"),
		r.FormValue("imagename"),
		r.FormValue("filecaption"),
	)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handlers) editPost(w http.ResponseWriter, r *http.Request, user *User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	post, err := h.ownedPost(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	var caption, memory *string
	if vs, ok := r.Form["caption"]; ok && len(vs) > 0 {
		caption = &vs[0]
	}
	if vs, ok := r.Form["memory"]; ok && len(vs) > 0 {
		memory = &vs[0]
	}
	if err := h.workflow.EditCaption(r.Context(), post.ID, caption, memory); err != nil {
		h.htmlError(w, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handlers) updateMedia(w http.ResponseWriter, r *http.Request, user *User) {
	file, hdr, ok := h.multipartFile(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	post, err := h.ownedPost(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	err = h.workflow.ReplaceMedia(r.Context(), post.ID, file,
		hdr.Filename,
		hdr.Header.Get("Content-Type"),
		r.FormValue("imagename"),
	)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handlers) setMemory(w http.ResponseWriter, r *http.Request, user *User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	post, err := h.ownedPost(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	if err := h.workflow.SetMemory(r.Context(), post.ID, r.FormValue("memory")); err != nil {
		h.htmlError(w, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handlers) deletePost(w http.ResponseWriter, r *http.Request, user *User) {
	post, err := h.ownedPost(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		h.jsonError(w, err)
		return
	}
	if err := h.workflow.Delete(r.Context(), post.ID); err != nil {
		h.jsonError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) comment(w http.ResponseWriter, r *http.Request, user *User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	c, err := h.workflow.Comment(r.Context(), mux.Vars(r)["id"], user.ID, r.FormValue("text"))
	if err != nil {
		h.jsonError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentWithAuthor{
		Comment:  *c,
		Username: user.Username,
		Fullname: user.Fullname,
	})
}

func (h *Handlers) listComments(w http.ResponseWriter, r *http.Request, _ *User) {
	comments, err := h.db.ListCommentsByPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, err)
		return
	}
	authors := make(map[string]*User)
	out := make([]CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		author, ok := authors[c.UserID]
		if !ok {
			author, err = h.db.GetUserByID(r.Context(), c.UserID)
			if err != nil {
				log.Printf("failed to resolve comment author %s: %v", c.UserID, err)
			}
			authors[c.UserID] = author
		}
		cwa := CommentWithAuthor{Comment: c}
		if author != nil {
			cwa.Username = author.Username
			cwa.Fullname = author.Fullname
		}
		out = append(out, cwa)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) react(w http.ResponseWriter, r *http.Request, user *User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if err := h.workflow.React(r.Context(), mux.Vars(r)["id"], user.ID, r.FormValue("emoji")); err != nil {
		h.jsonError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- Profile fields ---

func (h *Handlers) updateDP(w http.ResponseWriter, r *http.Request, user *User) {
	file, hdr, ok := h.multipartFile(w, r, "dp")
	if !ok {
		return
	}
	defer file.Close()

	mimeType := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		h.htmlError(w, ErrUnsupportedMediaType)
		return
	}
	name, err := h.media.Store(file, hdr.Filename, mimeType, "dp-"+user.Username)
	if err != nil {
		h.htmlError(w, err)
		return
	}
	if err := h.db.UpdateProfilePicture(r.Context(), user.ID, name); err != nil {
		if derr := h.media.Delete(name); derr != nil {
			log.Printf("failed to clean up orphaned dp %s: %v", name, derr)
		}
		h.htmlError(w, err)
		return
	}
	if user.DP != "" {
		if err := h.media.Delete(user.DP); err != nil {
			log.Printf("failed to delete old dp %s: %v", user.DP, err)
		}
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handlers) updateBio(w http.ResponseWriter, r *http.Request, user *User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if err := h.db.UpdateBio(r.Context(), user.ID, r.FormValue("bio")); err != nil {
		h.htmlError(w, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// --- Contact ---

func (h *Handlers) contact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	msg, err := h.db.SaveContactMessage(r.Context(), ContactInput{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
	})
	if err != nil {
		h.htmlError(w, err)
		return
	}
	// The record is already saved; a mail failure must not fail the request.
	if err := h.mailer.SendContact(r.Context(), msg); err != nil {
		log.Printf("failed to send contact mail %s: %v", msg.ID, err)
	}
	h.render(w, "contact-success.html", map[string]any{"Name": msg.Name})
}

// --- Helpers ---

// multipartFile parses the multipart form with the upload cap applied and
// returns the named file. On failure it writes the response itself.
func (h *Handlers) multipartFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.htmlError(w, ErrPayloadTooLarge)
			return nil, nil, false
		}
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return nil, nil, false
	}
	file, hdr, err := r.FormFile(field)
	if err != nil {
		http.Error(w, "A file is required", http.StatusBadRequest)
		return nil, nil, false
	}
	return file, hdr, true
}

func (h *Handlers) ownedPost(ctx context.Context, id string, user *User) (*Post, error) {
	post, err := h.db.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != user.ID {
		return nil, ErrNotOwner
	}
	return post, nil
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error executing template %s: %v", name, err)
	}
}

func (h *Handlers) htmlError(w http.ResponseWriter, err error) {
	status, msg := responseForError(err)
	http.Error(w, msg, status)
}

func (h *Handlers) jsonError(w http.ResponseWriter, err error) {
	status, msg := responseForError(err)
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func responseForError(err error) (int, string) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrDuplicateHandle), errors.Is(err, ErrDuplicateEmail):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, err.Error()
	default:
		log.Printf("internal error: %v", err)
		return http.StatusInternalServerError, "something went wrong"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
