package models

import "strings"

// Camera describes one CCTV source and its location on the map
type Camera struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Coords Coords `json:"coords"`
}

// DefaultCameras is the static camera registry served by GET /cameras.
// The offline processor assigns videos to these IDs in sorted order.
func DefaultCameras() []Camera {
	return []Camera{
		{ID: "cam_01", Name: "Main Gate", Coords: Coords{Lat: 21.13, Lng: 81.77}},
		{ID: "cam_02", Name: "North Wing", Coords: Coords{Lat: 21.135, Lng: 81.775}},
		{ID: "cam_03", Name: "South Wing", Coords: Coords{Lat: 21.125, Lng: 81.765}},
		{ID: "cam_04", Name: "East Wing", Coords: Coords{Lat: 21.132, Lng: 81.773}},
		{ID: "cam_05", Name: "West Parking", Coords: Coords{Lat: 21.128, Lng: 81.768}},
		{ID: "cam_06", Name: "Roof Access", Coords: Coords{Lat: 21.133, Lng: 81.772}},
	}
}

// CameraByID returns the camera with the given ID, matching case-insensitively
// because the offline artifacts historically mix cam_01 and CAM_01 spellings.
func CameraByID(cameras []Camera, id string) (Camera, bool) {
	for _, cam := range cameras {
		if strings.EqualFold(cam.ID, id) {
			return cam, true
		}
	}
	return Camera{}, false
}
