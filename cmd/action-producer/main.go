package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// ActionSubmission mirrors the message format the game server consumes
type ActionSubmission struct {
	PlayerName string `json:"player_name"`
	Action     string `json:"action"`
	Target     string `json:"target,omitempty"`
}

var heroPrefixes = []string{
	"Sir", "Lady", "Baron", "Dame", "Lord", "Squire", "Knight", "Duke", "Countess", "Thane",
}

var heroNames = []string{
	"Aldric", "Brina", "Cedric", "Dara", "Edmund", "Fiora", "Gareth", "Helga", "Ivan", "Jorah",
	"Kael", "Lyra", "Magnus", "Nessa", "Osric", "Petra", "Quinn", "Rowan", "Sable", "Tomas",
}

func heroName(idx int) string {
	prefix := heroPrefixes[idx%len(heroPrefixes)]
	name := heroNames[(idx/len(heroPrefixes))%len(heroNames)]
	suffix := idx/(len(heroPrefixes)*len(heroNames)) + 1
	return fmt.Sprintf("%s %s %d", prefix, name, suffix)
}

// pickAction weights the action mix roughly like a real play session:
// mostly forest fights, occasional duels and tavern visits.
func pickAction(playerIdx, totalPlayers int) ActionSubmission {
	submission := ActionSubmission{PlayerName: heroName(playerIdx)}

	switch roll := rand.Intn(100); {
	case roll < 60:
		submission.Action = "forest_fight"
	case roll < 75:
		submission.Action = "duel"
		targetIdx := rand.Intn(totalPlayers)
		if targetIdx == playerIdx {
			targetIdx = (targetIdx + 1) % totalPlayers
		}
		submission.Target = heroName(targetIdx)
	case roll < 90:
		submission.Action = "drink"
	default:
		submission.Action = "flirt"
	}

	return submission
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "game-actions", "Kafka topic")
	totalPlayers := flag.Int("players", 100, "Number of distinct player names to use")
	actionsPerSecond := flag.Int("rate", 50, "Actions per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  ⚔️  Game Action Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:       %s\n", *brokers)
	fmt.Printf("  Topic:         %s\n", *topic)
	fmt.Printf("  Players:       %d\n", *totalPlayers)
	fmt.Printf("  Actions/sec:   %d\n", *actionsPerSecond)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper. Keyed by player name so one player's actions
	// land on one partition and stay ordered.
	sendMessage := func(submission ActionSubmission) {
		data, err := json.Marshal(submission)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(submission.PlayerName),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	fmt.Printf("Sending actions (%d/sec)\n", *actionsPerSecond)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	interval := time.Second / time.Duration(*actionsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var actionCount int64

	shutdown := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\n\nDuration reached, shutting down...")
				shutdown()
				return
			}

			sendMessage(pickAction(rand.Intn(*totalPlayers), *totalPlayers))
			atomic.AddInt64(&actionCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Actions: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&actionCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
