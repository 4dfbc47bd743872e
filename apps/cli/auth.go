package main

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/user"
)

func (cli *commandLine) runLogin(args []string) error {
	fs := cli.flagSet("login")
	uname := fs.String("username", "", "The username. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *uname == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword(fs)
	if err != nil {
		return err
	}
	return cli.login(*uname, pwd)
}

func (cli *commandLine) login(uname, pwd string) error {
	res := cli.sess.Login(context.Background(), user.Credentials{Username: uname, Password: pwd})
	if err := resultError(res); err != nil {
		return err
	}
	usr, _ := cli.sess.User()
	cli.println(cli.tr.T("auth.welcome", i18n.Params{"name": usr.DisplayName()}))
	return nil
}

func (cli *commandLine) logout() error {
	cli.sess.Logout(context.Background())
	cli.println("Logged out")
	return nil
}

func (cli *commandLine) whoami() error {
	usr, ok := cli.sess.User()
	if !ok {
		return errNotLoggedIn
	}
	cli.printf("%s (%s) <%s>\n", usr.DisplayName(), usr.Role.Name(), usr.Email)
	if exp, ok := tokenExpiry(cli.sess.Token()); ok {
		cli.printf("token expires %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the API stays the authority.
func tokenExpiry(token string) (time.Time, bool) {
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil || claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0).UTC(), true
}

func (cli *commandLine) validate() error {
	if !cli.sess.IsAuthenticated() {
		return errNotLoggedIn
	}
	if !cli.sess.ValidateToken(context.Background()) {
		return errors.New("token is no longer valid; please log in again")
	}
	cli.println("Token is valid")
	return nil
}

func (cli *commandLine) runRegister(args []string) error {
	fs := cli.flagSet("register")
	uname := fs.String("username", "", "The new account's username.")
	email := fs.String("email", "", "The new account's email.")
	name := fs.String("fullname", "", "The new account's full name.")
	role := fs.String("role", string(user.RoleTeacher), "ADMIN, TEACHER or STUDENT.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *uname == "" || *email == "" || *name == "" {
		fs.Usage()
		return errHelp
	}
	if !cli.sess.HasPermission(user.PermManageUsers) {
		return errAccessDenied
	}
	pwd, err := cli.readPassword(fs)
	if err != nil {
		return err
	}

	nu := user.NewUser{
		Username: *uname,
		Email:    *email,
		FullName: *name,
		Password: pwd,
		Role:     user.Role(*role),
	}
	if err := user.CheckPassword(nu); err != nil {
		cli.printf("warning: %v\n", err)
	}
	res := cli.sess.Register(context.Background(), nu)
	if err := resultError(res); err != nil {
		return err
	}
	usr, _ := res.Data.(user.Profile)
	cli.printf("Registered %s (%s)\n", usr.Username, usr.Role.Name())
	return nil
}
