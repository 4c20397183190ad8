// scripts-sync uploads the local automation scripts to the object-store
// bucket the server reads from when SCRIPTS_SOURCE=bucket. Run it after
// editing scripts under the data directory:
//
//	scripts-sync -data data
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/planfill/planfill-server/internal/storage"
)

func main() {
	dataDir := flag.String("data", "data", "data directory containing scripts/")
	timeout := flag.Duration("timeout", 30*time.Second, "per-upload timeout")
	flag.Parse()

	st, err := storage.NewMinIOStorage(storage.LoadMinIOConfig())
	if err != nil {
		log.Fatalf("cannot reach object store: %v", err)
	}

	scriptsDir := filepath.Join(*dataDir, "scripts")
	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		log.Fatalf("cannot read %s: %v", scriptsDir, err)
	}

	uploaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".js") {
			continue
		}
		path := filepath.Join(scriptsDir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		key := "scripts/" + e.Name()
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		err = st.UploadFile(ctx, key, bytes.NewReader(b), int64(len(b)), "application/javascript")
		cancel()
		if err != nil {
			log.Fatalf("upload %s: %v", key, err)
		}
		log.Printf("uploaded %s (%d bytes)", key, len(b))
		uploaded++
	}
	log.Printf("done, %d scripts uploaded", uploaded)
}
