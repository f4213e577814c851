// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Corphon/CreativeStudio/internal/app"
	"github.com/Corphon/CreativeStudio/internal/config"
	"github.com/Corphon/CreativeStudio/internal/di"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/render"
	"github.com/Corphon/CreativeStudio/internal/studio"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

var reader = bufio.NewReader(os.Stdin)

func main() {
	fmt.Println("🎬 CreativeStudio Console")
	fmt.Println("========================")

	cfg, err := config.Load()
	if err != nil {
		log.Printf("❌ failed to load configuration: %v", err)
		return
	}

	logFile := fmt.Sprintf("logs/console_%s.log", time.Now().Format("2006-01-02"))
	if err := utils.InitLogger(logFile); err != nil {
		log.Printf("⚠️ structured log unavailable: %v", err)
	}

	if err := app.InitServices(cfg); err != nil {
		log.Printf("❌ failed to initialize services: %v", err)
		return
	}
	defer app.Cleanup()

	sessions, ok := di.GetContainer().Get("sessions").(*studio.Manager)
	if !ok {
		log.Println("❌ session manager not available")
		return
	}
	sessions.OnTransition(func(id string, t studio.Transition) {
		fmt.Printf("   · %s → %s\n", t.From, t.To)
	})
	session := sessions.Create()

	for {
		showMenu(session.State())
		switch strings.ToLower(getUserInput("> ")) {
		case "1", "script":
			submitScript(session)
		case "2", "assets":
			bindAssets(session)
		case "3", "show":
			showScript(session.Script())
		case "4", "export":
			exportComposition(session.Script())
		case "0", "q", "quit", "exit":
			fmt.Println("👋 bye")
			return
		default:
			fmt.Println("❓ unknown option")
		}
	}
}

func showMenu(state studio.State) {
	fmt.Printf("\nsession state: %s\n", state)
	fmt.Println("1. generate script")
	fmt.Println("2. bind assets")
	fmt.Println("3. show script")
	fmt.Println("4. export composition (YAML)")
	fmt.Println("0. quit")
}

func getUserInput(prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func submitScript(session *studio.Session) {
	req := models.ScriptRequest{
		Product:        getUserInput("product: "),
		Description:    getUserInput("description: "),
		TargetAudience: getUserInput("target audience: "),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("⏳ generating script...")
	script, err := session.Submit(ctx, req)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("✅ \"%s\" with %d scenes\n", script.Title, len(script.Scenes))
}

func bindAssets(session *studio.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("⏳ binding images and narration...")
	_, report, err := session.BindAssets(ctx)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("✅ %d/%d scenes narrated (%d from cache)\n", report.AudioBound, report.Scenes, report.CacheHits)
	for _, failure := range report.AudioFailures {
		fmt.Printf("   ⚠️ scene %d: %s\n", failure.SceneID, failure.Message)
	}
}

func showScript(script *models.Script) {
	if script == nil {
		fmt.Println("no script yet")
		return
	}
	fmt.Printf("\n📜 %s\n", script.Title)
	for _, scene := range script.Scenes {
		fmt.Printf("\n[%d] %.1fs  %s\n", scene.ID, scene.Duration, scene.OverlayText)
		fmt.Printf("    🎙  %s\n", scene.Voiceover)
		fmt.Printf("    🖼  %s\n", scene.ImagePrompt)
		if scene.HasImage() {
			fmt.Printf("    image: %s\n", scene.ImageURL)
		}
		if scene.HasAudio() {
			fmt.Printf("    audio: %s\n", scene.AudioURL)
		}
	}
}

func exportComposition(script *models.Script) {
	if script == nil {
		fmt.Println("no script yet")
		return
	}
	path := getUserInput("output file [composition.yaml]: ")
	if path == "" {
		path = "composition.yaml"
	}
	composition := render.Build(script)
	if err := render.WriteFile(composition, path); err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("✅ %d frames written to %s\n", composition.DurationInFrames, path)
}
