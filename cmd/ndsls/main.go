package main

import (
	"fmt"
	"os"

	"github.com/gonitro/ndsfs"
	"github.com/spf13/afero"
)

// main is just an example main to play with ndsfs: it prints what the
// header says about the image and lists every member of the mounted
// tree. With a second argument that member is dumped to stdout.
func main() {
	args := os.Args[1:]
	if len(args) <= 0 {
		fmt.Println("Please provide a cartridge image.")
		os.Exit(1)
	}

	image, err := os.Open(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	defer image.Close()

	cart, err := ndsfs.New(image)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	header := cart.Header()
	fmt.Printf("Opened %q (%s), class %v, capacity %d bytes\n",
		header.FriendlyName(), header.FriendlyCode(), header.Classify(), header.DeviceCapacity.Bytes())
	fmt.Printf("Suggested filename: %s\n\n", header.SuitableFilename())

	afero.Walk(cart, "", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		if info.IsDir() {
			fmt.Printf("%s/\n", path)
		} else {
			fmt.Printf("%s (%d bytes)\n", path, info.Size())
		}
		return nil
	})

	if len(args) < 2 {
		return
	}

	file, err := cart.Open(args[1])
	if err != nil {
		fmt.Println("could not open the member:", err)
		os.Exit(1)
	}

	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		fmt.Println("could not stat the member:", err)
		os.Exit(1)
	}

	buffer := make([]byte, stat.Size())
	if _, err := file.Read(buffer); err != nil {
		fmt.Println("could not read the member:", err)
		os.Exit(1)
	}

	os.Stdout.Write(buffer)
}
