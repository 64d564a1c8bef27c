package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
	"github.com/trezcool/mafunzo/core/watch"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	usrRepo  user.Repository
	vidSvc   video.Service
	watchSvc watch.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  suspenduser -username USERNAME|EMAIL [-reinstate] - suspend (or reinstate) a user account")
	fmt.Println("  setorder -category CATEGORY ID [ID ...] - set the admin video ordering of a category")
	fmt.Println("  importhistory -file FILE - import legacy watch-history documents from a JSON export")
	fmt.Println("  migrate COMMAND [args] - run DB migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email address.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant the user all admin roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	suspendUserCmd := flag.NewFlagSet("suspenduser", flag.ExitOnError)
	suspendUserUname := suspendUserCmd.String("username", "", "The user's username or email.")
	suspendUserReinstate := suspendUserCmd.Bool("reinstate", false, "Reinstate the account instead of suspending it.")

	setOrderCmd := flag.NewFlagSet("setorder", flag.ExitOnError)
	setOrderCategory := setOrderCmd.String("category", "", "The category to order. Remaining args are video IDs in the desired order.")

	importHistoryCmd := flag.NewFlagSet("importhistory", flag.ExitOnError)
	importHistoryFile := importHistoryCmd.String("file", "", "Path to the legacy JSON export.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserIsAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "suspenduser":
		if err := suspendUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *suspendUserUname == "" {
			suspendUserCmd.Usage()
			return errHelp
		}
		return cli.suspendUser(*suspendUserUname, !*suspendUserReinstate)
	case "setorder":
		if err := setOrderCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setOrderCategory == "" || setOrderCmd.NArg() == 0 {
			setOrderCmd.Usage()
			return errHelp
		}
		return cli.setOrder(*setOrderCategory, setOrderCmd.Args())
	case "importhistory":
		if err := importHistoryCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importHistoryFile == "" {
			importHistoryCmd.Usage()
			return errHelp
		}
		return cli.importHistory(*importHistoryFile)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
