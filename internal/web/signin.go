package web

import (
	"errors"
	"net/http"
	"sort"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/metrics"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

type signInData struct {
	SignUp    bool
	Next      string
	Email     string
	Providers []string
}

func (a *App) signInData(r *http.Request, signUp bool) signInData {
	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return signInData{SignUp: signUp, Next: auth.SafeNext(r.FormValue("next")), Providers: names}
}

func (a *App) signInPage(w http.ResponseWriter, r *http.Request) {
	v := view{Title: "Sign in", Data: a.signInData(r, false)}
	if msg := r.URL.Query().Get("error"); msg != "" {
		v.Error = msg
	}
	a.render(w, r, http.StatusOK, "sign_in", v)
}

func (a *App) signUpPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "sign_in", view{Title: "Sign up", Data: a.signInData(r, true)})
}

func (a *App) signIn(w http.ResponseWriter, r *http.Request) {
	data := a.signInData(r, false)
	data.Email = r.PostFormValue("email")

	u, err := a.accounts.SignIn(r.Context(), data.Email, r.PostFormValue("password"))
	metrics.RecordSignIn(models.ProviderPassword, err)
	if err != nil {
		status := http.StatusUnauthorized
		msg := shared.ErrInvalidCredentials.Error()
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			a.logger.Error("password sign-in failed", "error", err)
			status, msg = http.StatusInternalServerError, "Sign-in is unavailable right now."
		}
		a.render(w, r, status, "sign_in", view{Title: "Sign in", Error: msg, Data: data})
		return
	}
	a.startSession(w, r, u, data.Next)
}

func (a *App) signUp(w http.ResponseWriter, r *http.Request) {
	data := a.signInData(r, true)
	data.Email = r.PostFormValue("email")

	u, err := a.accounts.SignUp(r.Context(), data.Email, r.PostFormValue("password"))
	if err != nil {
		status, msg := http.StatusBadRequest, err.Error()
		switch {
		case errors.Is(err, shared.ErrEmailTaken):
			status, msg = http.StatusConflict, shared.ErrEmailTaken.Error()
		case errors.Is(err, shared.ErrInvalidInput):
		default:
			a.logger.Error("sign-up failed", "error", err)
			status, msg = http.StatusInternalServerError, "Sign-up is unavailable right now."
		}
		a.render(w, r, status, "sign_in", view{Title: "Sign up", Error: msg, Data: data})
		return
	}
	a.logger.Info("account created", "user", u.ID)
	a.startSession(w, r, u, data.Next)
}

func (a *App) startSession(w http.ResponseWriter, r *http.Request, u *models.User, next string) {
	token, expires, err := a.sessions.Issue(u)
	if err != nil {
		a.logger.Error("failed to issue session", "user", u.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.sessions.SetSession(w, token, expires)
	http.Redirect(w, r, auth.SafeNext(next), http.StatusSeeOther)
}

func (a *App) signOut(w http.ResponseWriter, r *http.Request) {
	a.sessions.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
