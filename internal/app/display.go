package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/heading"
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	// Raw field data
	magRaw     magPayload
	haveMagRaw bool

	// Heading data
	hdg     heading.Reading
	haveHdg bool
}

func RunDisplay(configPath string) error {
	if err := config.InitGlobal(configPath); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	cfg := config.Get()

	content := cfg.DisplayContent
	if content == "" {
		content = "heading"
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &DisplayData{}

	// Connect to MQTT
	clientID := cfg.MQTTClientIDDisplay
	if clientID == "" {
		clientID = "mag-display"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to the topic for the configured content
	if err := subscribeForContent(client, content, data, cfg); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	// Display update loop
	updateInterval := cfg.DisplayUpdateInterval
	if updateInterval == 0 {
		updateInterval = 200
	}
	ticker := time.NewTicker(time.Duration(updateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		// Read data without copying the mutex
		data.mu.RLock()
		snapshot := DisplayData{
			magRaw:     data.magRaw,
			haveMagRaw: data.haveMagRaw,
			hdg:        data.hdg,
			haveHdg:    data.haveHdg,
		}
		data.mu.RUnlock()

		if err := updateDisplay(display, content, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func subscribeForContent(client mqtt.Client, content string, data *DisplayData, cfg *config.Config) error {
	switch content {
	case "heading":
		topic := cfg.TopicHeading
		if topic == "" {
			topic = "mag/heading"
		}
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var h heading.Reading
			if err := json.Unmarshal(msg.Payload(), &h); err != nil {
				log.Printf("display: heading unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.hdg = h
			data.haveHdg = true
			data.mu.Unlock()
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s", topic)

	case "mag_raw":
		topic := cfg.TopicMag
		if topic == "" {
			topic = "mag/raw"
		}
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var p magPayload
			if err := json.Unmarshal(msg.Payload(), &p); err != nil {
				log.Printf("display: mag_raw unmarshal error: %v", err)
				return
			}
			data.mu.Lock()
			data.magRaw = p
			data.haveMagRaw = true
			data.mu.Unlock()
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s", topic)

	default:
		return fmt.Errorf("unknown display content type: %s", content)
	}

	return nil
}

func updateDisplay(dev *ssd1306.Dev, content string, data *DisplayData) error {
	switch content {
	case "heading":
		return updateHeadingDisplay(dev, data.hdg, data.haveHdg)
	case "mag_raw":
		return updateMagRawDisplay(dev, data.magRaw, data.haveMagRaw)
	default:
		return fmt.Errorf("unknown display content type: %s", content)
	}
}

func updateHeadingDisplay(dev *ssd1306.Dev, h heading.Reading, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Heading"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("HDG: %6.1f", h.Degrees)))

		// Calibrated field in gauss
		drawer.Dot = fixed.P(0, 32)
		drawer.DrawBytes([]byte(fmt.Sprintf("X: %7.4f", h.Mx)))

		drawer.Dot = fixed.P(0, 45)
		drawer.DrawBytes([]byte(fmt.Sprintf("Y: %7.4f", h.My)))

		drawer.Dot = fixed.P(0, 58)
		drawer.DrawBytes([]byte(fmt.Sprintf("Z: %7.4f", h.Mz)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateMagRawDisplay(dev *ssd1306.Dev, p magPayload, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Mag Raw"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("M:%6d %6d", p.Mx, p.My)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("  %6d", p.Mz)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("T: %6d", p.TempRaw)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("HDG: %6.1f", p.Heading)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Mag Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("field"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
