package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"netdrive/internel/client"
	"netdrive/internel/fs"
	. "netdrive/internel/log"
	"netdrive/internel/pb"
	"netdrive/internel/shared"
)

// run connects, logs in and hands the authenticated client to fn. Ctrl-C
// cancels fn's context, which also cancels a running transfer.
func run(fn func(ctx context.Context, c *client.Client) error) error {
	defer setup()()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := client.Connect(dialCtx, shared.Params{
		Server:   GConf.Server,
		SSL:      GConf.SSL,
		Email:    GConf.Email,
		Password: GConf.Password,
	}, client.WithChunkSize(GConf.ChunkSize))
	if err != nil {
		Log.Errorf("Connect to %v server error", GConf.Server)
		return err
	}
	defer c.Close()

	if err := c.Authenticate(dialCtx); err != nil {
		return err
	}
	// The server opens the root right after login.
	if _, err := c.Listing(dialCtx); err != nil {
		return err
	}
	ts := time.Now()
	err = fn(ctx, c)
	Log.Debugf("Command took %v ms", time.Since(ts).Milliseconds())
	return err
}

func printListing(l *pb.Listing) {
	fmt.Println(strings.Join(l.GetPath(), "/") + ":")
	for _, d := range l.GetDirectories() {
		fmt.Println("  " + d + "/")
	}
	for _, f := range l.GetFiles() {
		fmt.Println("  " + f)
	}
}

type LsCommand struct {
	Args struct {
		Path string `positional-arg-name:"path" description:"remote directory, root when omitted"`
	} `positional-args:"yes"`
}

func (cmd *LsCommand) Execute([]string) error {
	return run(func(ctx context.Context, c *client.Client) error {
		if err := c.Open(orRoot(cmd.Args.Path)); err != nil {
			return err
		}
		l, err := c.Listing(ctx)
		if err != nil {
			return err
		}
		printListing(l)
		return nil
	})
}

type MkdirCommand struct {
	Args struct {
		Path string `positional-arg-name:"path" required:"yes" description:"remote directory to create"`
	} `positional-args:"yes"`
}

func (cmd *MkdirCommand) Execute([]string) error {
	return run(func(ctx context.Context, c *client.Client) error {
		if err := c.Mkdir(fs.Parent(cmd.Args.Path), fs.Base(cmd.Args.Path)); err != nil {
			return err
		}
		l, err := c.Listing(ctx)
		if err != nil {
			return err
		}
		printListing(l)
		return nil
	})
}

type RmCommand struct {
	Args struct {
		Path string `positional-arg-name:"path" required:"yes" description:"remote file or directory"`
	} `positional-args:"yes"`
}

func (cmd *RmCommand) Execute([]string) error {
	return run(func(ctx context.Context, c *client.Client) error {
		if err := c.Delete(cmd.Args.Path); err != nil {
			return err
		}
		l, err := c.Listing(ctx)
		if err != nil {
			return err
		}
		printListing(l)
		return nil
	})
}

type MvCommand struct {
	Args struct {
		Path    string `positional-arg-name:"path" required:"yes" description:"remote file or directory"`
		NewName string `positional-arg-name:"new-name" required:"yes" description:"new name in the same directory"`
	} `positional-args:"yes"`
}

func (cmd *MvCommand) Execute([]string) error {
	return run(func(ctx context.Context, c *client.Client) error {
		if err := c.Rename(cmd.Args.Path, cmd.Args.NewName); err != nil {
			return err
		}
		l, err := c.Listing(ctx)
		if err != nil {
			return err
		}
		printListing(l)
		return nil
	})
}

type PutCommand struct {
	Args struct {
		Local  string `positional-arg-name:"local" required:"yes" description:"local file"`
		Remote string `positional-arg-name:"remote-dir" description:"remote directory, root when omitted"`
	} `positional-args:"yes"`
}

func (cmd *PutCommand) Execute([]string) error {
	return run(func(ctx context.Context, c *client.Client) error {
		l, err := c.Upload(ctx, cmd.Args.Local, orRoot(cmd.Args.Remote))
		if err != nil {
			return err
		}
		fmt.Println("uploaded", filepath.Base(cmd.Args.Local))
		printListing(l)
		return nil
	})
}

type GetCommand struct {
	Args struct {
		Remote string `positional-arg-name:"remote" required:"yes" description:"remote file"`
		Local  string `positional-arg-name:"local" description:"local destination, the remote name in the current directory when omitted"`
	} `positional-args:"yes"`
}

func (cmd *GetCommand) Execute([]string) error {
	local := cmd.Args.Local
	if local == "" {
		local = fs.Base(cmd.Args.Remote)
	} else if info, err := os.Stat(local); err == nil && info.IsDir() {
		local = filepath.Join(local, fs.Base(cmd.Args.Remote))
	}
	return run(func(ctx context.Context, c *client.Client) error {
		if err := c.Download(ctx, cmd.Args.Remote, local); err != nil {
			return err
		}
		fmt.Println("downloaded", local)
		return nil
	})
}

func orRoot(p string) string {
	if p == "" {
		return shared.Root
	}
	return p
}
