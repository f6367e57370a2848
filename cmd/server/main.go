// Command whispersrv runs the transcription service's CLI: "serve"
// starts the HTTP server, "transcribe <url>" runs one request directly.
package main

import "github.com/speechcore/whispersrv/cmd"

func main() {
	cmd.Execute()
}
