// Package cars holds consist description data: ordered vehicle lists
// keyed by consist UUID, as loaded from the activity's JSON files.
package cars

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Data struct {
	Consists map[uuid.UUID]Consist `json:"consists"` // json struct tag isn't actually used but kept for docs purposes
}

type dataJSON struct {
	Consists map[string]Consist `json:"consists"`
}

func (d Data) MarshalJSON() ([]byte, error) {
	d3 := dataJSON{Consists: map[string]Consist{}}
	for key, c := range d.Consists {
		d3.Consists[key.String()] = c
	}
	return json.Marshal(d3)
}

func (d *Data) UnmarshalJSON(data []byte) error {
	var d3 dataJSON
	err := json.Unmarshal(data, &d3)
	if err != nil {
		return err
	}
	d2 := Data{Consists: map[uuid.UUID]Consist{}}
	for key, c := range d3.Consists {
		u2, err := uuid.Parse(key)
		if err != nil {
			return fmt.Errorf("key %s: parse key as UUID: %w", key, err)
		}
		d2.Consists[u2] = c
	}
	*d = d2
	return nil
}

// Consist is an ordered list of rail vehicles, front to rear.
type Consist struct {
	Comment string `json:"comment"`
	// Vehicles front to rear. The front of the first vehicle is the front
	// of the consist.
	Vehicles []Vehicle `json:"vehicles"`
}

// HasEngine reports whether any vehicle in the consist is an engine.
func (c Consist) HasEngine() bool {
	for _, v := range c.Vehicles {
		if v.Engine {
			return true
		}
	}
	return false
}

// Vehicle names one rail vehicle of a consist. Folder and File identify
// the wagon description to resolve; resolution (and therefore Length) is
// the vehicle loader's job, not this package's.
type Vehicle struct {
	Comment string `json:"comment"`
	Folder  string `json:"folder"`
	File    string `json:"file"`
	// Engine is true for locomotives, false for wagons.
	Engine bool `json:"engine"`
	// Flip mounts the vehicle back-to-front in the consist.
	Flip bool `json:"flip"`
}
