// Seed tool for populating a running pet shop with sample data.
//
// Usage:
//   go run cmd/seed/main.go -url http://localhost:8080
//
// This tool:
//   1. Creates the five classic starter pets
//   2. Optionally creates extra randomized pets (-count N)
//   3. Optionally runs a short care demo against them (-demo)
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// PetRequest is the pet creation API request format
type PetRequest struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Age   int     `json:"age"`
	Price float64 `json:"price"`
}

// PetResponse is the pet API response format
type PetResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Emoji     string  `json:"emoji"`
	Happiness float64 `json:"happiness"`
	Hunger    float64 `json:"hunger"`
	Mood      string  `json:"mood"`
}

// starters are the classic shop residents.
var starters = []PetRequest{
	{Name: "Buddy", Type: "Dog", Age: 3, Price: 250},
	{Name: "Whiskers", Type: "Cat", Age: 2, Price: 150},
	{Name: "Fluffy", Type: "Rabbit", Age: 1, Price: 80},
	{Name: "Max", Type: "Dog", Age: 5, Price: 300},
	{Name: "Tweety", Type: "Bird", Age: 1, Price: 45},
}

// namesBySpecies feeds the randomized pets.
var namesBySpecies = map[string][]string{
	"Dog":     {"Rex", "Luna", "Charlie", "Bella", "Rocky"},
	"Cat":     {"Shadow", "Mittens", "Oliver", "Simba", "Cleo"},
	"Rabbit":  {"Thumper", "Clover", "Snowball", "Pepper"},
	"Bird":    {"Kiwi", "Sunny", "Rio", "Sky"},
	"Fish":    {"Bubbles", "Nemo", "Goldie", "Splash"},
	"Hamster": {"Peanut", "Nibbles", "Biscuit", "Gizmo"},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Pet shop base URL")
	count := flag.Int("count", 0, "Extra randomized pets to create")
	demo := flag.Bool("demo", false, "Run a short feed/play/sell demo afterwards")
	flag.Parse()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: pet shop not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure the server is running:")
		fmt.Println("  go run cmd/petshop/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Pet shop is healthy")

	client := &http.Client{Timeout: 10 * time.Second}
	var created []PetResponse

	fmt.Println("\nCreating starter pets...")
	for _, req := range starters {
		pet, err := createPet(client, *baseURL, req)
		if err != nil {
			fmt.Printf("ERROR: failed to create %s: %v\n", req.Name, err)
			continue
		}
		created = append(created, *pet)
		fmt.Printf("  %s %-10s #%d (%s, age %d, $%.2f)\n",
			pet.Emoji, pet.Name, pet.ID, pet.Type, req.Age, req.Price)
	}

	if *count > 0 {
		fmt.Printf("\nCreating %d randomized pets...\n", *count)
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for i := 0; i < *count; i++ {
			req := randomPet(rng)
			pet, err := createPet(client, *baseURL, req)
			if err != nil {
				fmt.Printf("ERROR: failed to create %s: %v\n", req.Name, err)
				continue
			}
			created = append(created, *pet)
			fmt.Printf("  %s %-10s #%d (%s, age %d, $%.2f)\n",
				pet.Emoji, pet.Name, pet.ID, pet.Type, req.Age, req.Price)
		}
	}

	if *demo && len(created) > 0 {
		runDemo(client, *baseURL, created)
	}

	fmt.Printf("\n✓ Done: %d pets in the shop\n", len(created))
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func randomPet(rng *rand.Rand) PetRequest {
	species := make([]string, 0, len(namesBySpecies))
	for s := range namesBySpecies {
		species = append(species, s)
	}
	kind := species[rng.Intn(len(species))]
	names := namesBySpecies[kind]

	return PetRequest{
		Name:  names[rng.Intn(len(names))],
		Type:  kind,
		Age:   1 + rng.Intn(10),
		Price: float64(20 + rng.Intn(480)),
	}
}

func createPet(client *http.Client, baseURL string, req PetRequest) (*PetResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(baseURL+"/pets", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var pet PetResponse
	if err := json.NewDecoder(resp.Body).Decode(&pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// runDemo feeds and plays with the first pet, then sells the last one.
func runDemo(client *http.Client, baseURL string, pets []PetResponse) {
	fmt.Println("\nRunning care demo...")

	first := pets[0]
	for _, action := range []string{"feed", "play"} {
		pet, err := petAction(client, baseURL, first.ID, action)
		if err != nil {
			fmt.Printf("ERROR: %s %s: %v\n", action, first.Name, err)
			continue
		}
		fmt.Printf("  %s %s -> happiness %.0f, hunger %.0f (%s)\n",
			action, pet.Name, pet.Happiness, pet.Hunger, pet.Mood)
	}

	last := pets[len(pets)-1]
	if pet, err := petAction(client, baseURL, last.ID, "sell"); err != nil {
		fmt.Printf("ERROR: sell %s: %v\n", last.Name, err)
	} else {
		fmt.Printf("  sold %s %s\n", pet.Emoji, pet.Name)
	}
}

func petAction(client *http.Client, baseURL string, id int64, action string) (*PetResponse, error) {
	url := fmt.Sprintf("%s/pets/%d/%s", baseURL, id, action)
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var pet PetResponse
	if err := json.NewDecoder(resp.Body).Decode(&pet); err != nil {
		return nil, err
	}
	return &pet, nil
}
