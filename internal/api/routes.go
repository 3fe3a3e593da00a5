package api

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler.HealthCheck)
	s.router.GET("/cameras", s.cameraHandler.ListCameras)

	s.router.POST("/report-detection", s.detectionHandler.ReportDetection)
	s.router.GET("/get-detections", s.detectionHandler.GetDetections)
	s.router.GET("/ws/detections", s.wsHandler.Serve)

	api := s.router.Group("/api")
	{
		api.GET("/person/:person_id", s.personHandler.GetPerson)
		api.GET("/persons", s.personHandler.ListPersons)
	}

	sim := s.router.Group("/simulation")
	{
		sim.POST("/start", s.simulationHandler.Start)
		sim.POST("/stop", s.simulationHandler.Stop)
		sim.GET("/status", s.simulationHandler.Status)
	}
}
