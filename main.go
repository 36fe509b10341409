package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tobiasfamos/HashStore/store"
)

const memoryLimit = 100_000_000 // 100 MB

func main() {
	args := os.Args[1:]
	if c := len(args); c != 1 {
		help()
	}

	dir := args[0]
	fmt.Printf("Loading hash store from %s\n", dir)
	cli, err := NewCLI(dir)
	if err != nil {
		abort(fmt.Sprintf("Error loading hash store: %v\nMake sure the target directory exists.\n", err))
	}

	for {
		cmd := prompt(fmt.Sprintf("Hash Store @ %s>", dir))
		response, cont := cli.Handle(cmd)
		fmt.Println(response)
		if !cont {
			os.Exit(0)
		}
	}
}

func prompt(label string) string {
	var out string

	r := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, label+" ")
		out, _ = r.ReadString('\n')
		if out != "" {
			break
		}
	}

	return strings.TrimSpace(out)
}

type CLI struct {
	store *store.HashStore
}

func NewCLI(dir string) (*CLI, error) {
	cli := CLI{}
	cli.store = &store.HashStore{}

	err := cli.store.Open(dir)
	if err != nil {
		err = cli.store.Create(
			store.StoreConfig{
				MemorySize:       memoryLimit,
				WorkingDirectory: dir,
			},
		)
	}

	return &cli, err
}

func (cli *CLI) Close() error {
	return cli.store.Close()
}

func (cli *CLI) Handle(cmd string) (string, bool) {
	parts := strings.Split(cmd, " ")

	switch parts[0] {
	case "get":
		if len(parts) != 2 {
			return cli.Help(), true
		}

		key, err := parseKey(parts[1])
		if err != nil {
			return err.Error(), true
		}

		val, err := cli.store.Get(key)
		if err != nil {
			return fmt.Sprintf("Error retrieving key: %v", err), true
		}

		return fmt.Sprintf("%d = %x", key, val), true

	case "set":
		if len(parts) != 3 {
			return cli.Help(), true
		}

		key, err := parseKey(parts[1])
		if err != nil {
			return err.Error(), true
		}

		val, err := parseValue(parts[2])
		if err != nil {
			return err.Error(), true
		}

		if err := cli.store.Put(key, val); err != nil {
			return fmt.Sprintf("Error storing key: %v", err), true
		}

		return fmt.Sprintf("Successfully stored %d = %x", key, val), true

	case "del":
		if len(parts) != 3 {
			return cli.Help(), true
		}

		key, err := parseKey(parts[1])
		if err != nil {
			return err.Error(), true
		}

		val, err := parseValue(parts[2])
		if err != nil {
			return err.Error(), true
		}

		if err := cli.store.Remove(key, val); err != nil {
			return fmt.Sprintf("Error deleting key: %v", err), true
		}

		return fmt.Sprintf("Successfully deleted %d", key), true

	case "exit":
		err := cli.Close()
		if err == nil {
			return "Hash store successfully closed", false
		} else {
			return fmt.Sprintf("Error closing hash store: %v", err), false
		}
	default:
		return cli.Help(), true
	}
}

func parseKey(keyString string) (uint64, error) {
	key, err := strconv.ParseUint(keyString, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid key %s: %v", keyString, err)
	}

	return key, nil
}

func parseValue(valString string) ([10]byte, error) {
	valAry := [10]byte{}

	if len(valString) < 2 || valString[0:2] != "0x" {
		return valAry, fmt.Errorf("invalid value: must be hex-encoded with leading 0x prefix")
	}
	valString = valString[2:]

	val, err := hex.DecodeString(valString)
	if err != nil {
		return valAry, fmt.Errorf("invalid hex-encoded string: %v", err)
	}

	if len(val) > 10 {
		return valAry, fmt.Errorf("value must be 10 bytes at most, was %d", len(val))
	}

	copy(valAry[:], val)
	return valAry, nil
}

func (cli *CLI) Help() string {
	out := ""
	out += "Valid commands:\n"
	out += "\n"
	out += "\tget <key>\n"
	out += "\tExample: get 123\n"
	out += "\n"
	out += "\tset <key> <value>\n"
	out += "\tExample: set 123 0x4242\n"
	out += "\n"
	out += "\tdel <key> <value>\n"
	out += "\tExample: del 123 0x4242\n"
	out += "\n"
	out += "\texit\n"

	return out
}

func help() {
	fmt.Println("Usage: ./HashStore <persistence_directory>")
	os.Exit(2)
}

func abort(msg string) {
	fmt.Printf("Error: %s\n", msg)
	os.Exit(1)
}
