package questionbank

import "github.com/mind-engage/studyhub/internal/exam"

// Seed returns the built-in cloud computing catalogue. Each call returns a
// fresh slice.
func Seed() []exam.Question {
	return []exam.Question{
		{
			ID:   "q1",
			Text: "What are the three main cloud service models?",
			Options: []string{
				"IaaS, PaaS, SaaS",
				"Public, Private, Hybrid",
				"On-premises, Cloud, Edge",
				"Compute, Storage, Network",
			},
			CorrectAnswer: "IaaS, PaaS, SaaS",
			Explanation:   "The three main cloud service models are Infrastructure as a Service (IaaS), Platform as a Service (PaaS), and Software as a Service (SaaS).",
			Difficulty:    exam.DifficultyEasy,
			Topic:         "Cloud Fundamentals",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q2",
			Text: "Which Huawei Cloud service provides virtual machines?",
			Options: []string{
				"OBS",
				"ECS",
				"VPC",
				"RDS",
			},
			CorrectAnswer: "ECS",
			Explanation:   "ECS (Elastic Cloud Server) is Huawei Cloud's virtual machine service.",
			Difficulty:    exam.DifficultyEasy,
			Topic:         "Huawei Cloud Services",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q3",
			Text: "What does VPC stand for in cloud computing?",
			Options: []string{
				"Virtual Private Cloud",
				"Virtual Public Cloud",
				"Virtual Processing Center",
				"Virtual Platform Configuration",
			},
			CorrectAnswer: "Virtual Private Cloud",
			Explanation:   "VPC stands for Virtual Private Cloud, which provides isolated network environments in the cloud.",
			Difficulty:    exam.DifficultyEasy,
			Topic:         "Networking",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q4",
			Text: "Which principle ensures that cloud resources can be scaled up or down based on demand?",
			Options: []string{
				"Resource pooling",
				"Rapid elasticity",
				"Measured service",
				"Broad network access",
			},
			CorrectAnswer: "Rapid elasticity",
			Explanation:   "Rapid elasticity allows cloud resources to be automatically scaled up or down based on demand.",
			Difficulty:    exam.DifficultyMedium,
			Topic:         "Cloud Fundamentals",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q5",
			Text: "What is the primary purpose of a load balancer in cloud architecture?",
			Options: []string{
				"Store data",
				"Distribute incoming requests across multiple servers",
				"Provide security",
				"Monitor performance",
			},
			CorrectAnswer: "Distribute incoming requests across multiple servers",
			Explanation:   "A load balancer distributes incoming network traffic across multiple servers to ensure no single server is overwhelmed.",
			Difficulty:    exam.DifficultyMedium,
			Topic:         "Architecture",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q6",
			Text: "In microservices architecture, what is the recommended approach for data management?",
			Options: []string{
				"Single shared database for all services",
				"Each service should have its own database",
				"No databases, only file storage",
				"In-memory storage only",
			},
			CorrectAnswer: "Each service should have its own database",
			Explanation:   "In microservices architecture, each service should manage its own data to maintain loose coupling and independence.",
			Difficulty:    exam.DifficultyHard,
			Topic:         "Architecture",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q7",
			Text: "What is the difference between horizontal and vertical scaling?",
			Options: []string{
				"Horizontal adds more servers, vertical increases server capacity",
				"Horizontal increases server capacity, vertical adds more servers",
				"Both are the same",
				"Horizontal is for storage, vertical is for compute",
			},
			CorrectAnswer: "Horizontal adds more servers, vertical increases server capacity",
			Explanation:   "Horizontal scaling (scale out) adds more servers, while vertical scaling (scale up) increases the capacity of existing servers.",
			Difficulty:    exam.DifficultyHard,
			Topic:         "Scalability",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q8",
			Text: "Which Huawei Cloud service is used for object storage?",
			Options: []string{
				"EVS",
				"SFS",
				"OBS",
				"CBR",
			},
			CorrectAnswer: "OBS",
			Explanation:   "OBS (Object Storage Service) is Huawei Cloud's object storage service for storing and retrieving any amount of data.",
			Difficulty:    exam.DifficultyEasy,
			Topic:         "Huawei Cloud Services",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q9",
			Text: "What is the main benefit of using containerization in cloud deployments?",
			Options: []string{
				"Reduced security",
				"Application portability and consistency",
				"Increased complexity",
				"Higher resource usage",
			},
			CorrectAnswer: "Application portability and consistency",
			Explanation:   "Containerization provides application portability and consistency across different environments.",
			Difficulty:    exam.DifficultyMedium,
			Topic:         "Containers",
			Type:          exam.TypeMultipleChoice,
		},
		{
			ID:   "q10",
			Text: "In a multi-cloud strategy, what is the primary challenge?",
			Options: []string{
				"Cost reduction",
				"Vendor lock-in avoidance",
				"Complexity management and integration",
				"Performance improvement",
			},
			CorrectAnswer: "Complexity management and integration",
			Explanation:   "Multi-cloud strategies introduce complexity in managing and integrating services across different cloud providers.",
			Difficulty:    exam.DifficultyHard,
			Topic:         "Multi-Cloud",
			Type:          exam.TypeMultipleChoice,
		},
	}
}
