package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

type Config struct {
	Server    string `short:"s" long:"server" env:"NETDRIVE_SERVER" default:"127.0.0.1:8189" description:"server address"`
	SSL       bool   `long:"ssl" description:"optional specify whether to use tls"`
	Email     string `short:"e" long:"email" env:"NETDRIVE_EMAIL" description:"account email"`
	Password  string `short:"p" long:"password" env:"NETDRIVE_PASSWORD" description:"account password, prompted when empty"`
	ChunkSize int    `long:"chunk-size" default:"30000000" description:"upload chunk size in bytes"`
	Debug     bool   `short:"d" long:"debug" description:"enable debug logging"`
}

var GConf = &Config{}

func NewParser() *flags.Parser {
	parser := flags.NewParser(GConf, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		if GConf.Email == "" {
			return errors.New("email can not be empty, please use -h to see help")
		}
		if GConf.Password == "" {
			p, err := readPassword()
			if err != nil {
				return err
			}
			GConf.Password = p
		}
		return cmd.Execute(args)
	}

	_, _ = parser.AddCommand("ls", "List a remote directory", "", &LsCommand{})
	_, _ = parser.AddCommand("mkdir", "Create a remote directory", "", &MkdirCommand{})
	_, _ = parser.AddCommand("rm", "Delete a remote file or directory", "", &RmCommand{})
	_, _ = parser.AddCommand("mv", "Rename a remote file or directory", "", &MvCommand{})
	_, _ = parser.AddCommand("put", "Upload a local file", "", &PutCommand{})
	_, _ = parser.AddCommand("get", "Download a remote file", "", &GetCommand{})
	return parser
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password can not be empty when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(b), nil
}
