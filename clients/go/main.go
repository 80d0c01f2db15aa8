// roomdrop CLI - command line client for the roomdrop API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/roomdrop/roomdrop/clients/go/roomdrop"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("ROOMDROP_URL")
	client := roomdrop.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "create":
		private := len(os.Args) > 2 && os.Args[2] == "--private"
		password := ""
		if private {
			if len(os.Args) < 4 {
				exitOnError(fmt.Errorf("usage: create --private <password>"))
			}
			password = os.Args[3]
		}
		roomID, err := client.CreateRoom(private, password)
		exitOnError(err)
		fmt.Println(roomID)

	case "read":
		requireArg(2, "read <room-id>")
		msgs, err := client.GetMessages(os.Args[2])
		exitOnError(err)
		for _, msg := range msgs {
			ts := time.UnixMilli(msg.CreatedAt).Format("15:04:05")
			fmt.Printf("  [%s] %s: %s\n", ts, msg.UserID, msg.Content)
		}

	case "post":
		requireArg(3, "post <room-id> <content>")
		msg, err := client.PostMessage(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Println(msg.ID)

	case "destroy":
		requireArg(2, "destroy <room-id>")
		exitOnError(client.DeleteRoom(os.Args[2]))
		fmt.Println("room destroyed")

	case "nearby":
		rooms, err := client.NearbyRooms()
		exitOnError(err)
		for _, room := range rooms {
			age := time.Since(time.UnixMilli(room.CreatedAt)).Round(time.Minute)
			fmt.Printf("  %s  (age %s, private=%v)\n", room.ID, age, room.IsPrivate)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func requireArg(n int, use string) {
	if len(os.Args) <= n {
		exitOnError(fmt.Errorf("usage: %s", use))
	}
}

func usage() {
	fmt.Println(`roomdrop <command>

commands:
  health                      server health
  create [--private <pw>]     create a room, print its id
  read <room-id>              print a room's messages
  post <room-id> <content>    post a text message
  destroy <room-id>           destroy a room you created
  nearby                      rooms created from this address`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
