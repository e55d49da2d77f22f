package content

import (
	"strings"

	"storefront/internal/models"
)

// The mock dataset backs every provider while the upstream API is not
// available (app.mock_api). Callers receive copies.

var mockPosts = []models.BlogPost{
	{
		ID:       "future-of-web-design-2025",
		Title:    "The Future of Web Design in 2025",
		Excerpt:  "Explore the emerging trends that will define the next generation of digital experiences, from AI-driven layouts to immersive 3D interactions.",
		Content:  `<p class="lead">The web is evolving at an unprecedented pace. As we look towards 2025, several key trends are emerging that will reshape how we design and interact with digital content.</p><h2>1. AI-Driven Generative Layouts</h2><p>Static templates are becoming a thing of the past.</p><h2>2. Immersive 3D Experiences</h2><p>3D is moving from a novelty to a core design element.</p>`,
		Author:   "Alex Johnson",
		Role:     "Creative Director",
		Date:     "Nov 15, 2024",
		ReadTime: "5 min read",
		Image:    "https://images.unsplash.com/photo-1558655146-d09347e0b7a9?q=80&w=2070&auto=format&fit=crop",
		Category: "Design",
	},
	{
		ID:       "mastering-react-three-fiber",
		Title:    "Mastering React Three Fiber: A Beginner's Guide",
		Excerpt:  "Learn how to bring your React applications to life with 3D graphics using the power of React Three Fiber and WebGL.",
		Content:  `<p class="lead">React Three Fiber (R3F) is a powerful renderer for Three.js that allows you to build 3D scenes using declarative React components.</p><h2>Getting Started</h2><p>The <code>Canvas</code> component acts as your portal into the 3D world.</p>`,
		Author:   "Sarah Williams",
		Role:     "Lead Developer",
		Date:     "Nov 10, 2024",
		ReadTime: "8 min read",
		Image:    "https://images.unsplash.com/photo-1633356122544-f134324a6cee?q=80&w=2070&auto=format&fit=crop",
		Category: "Development",
	},
	{
		ID:       "building-scalable-design-systems",
		Title:    "Building Scalable Design Systems for Enterprise",
		Excerpt:  "How to create and maintain a design system that scales with your product and team. Best practices and lessons learned.",
		Content:  `<p class="lead">A design system is more than just a component library; it's the shared language of your product team.</p><h2>Documentation is Key</h2><p>A design system without documentation is just a collection of code.</p>`,
		Author:   "Emma Davis",
		Role:     "UX Researcher",
		Date:     "Oct 28, 2024",
		ReadTime: "6 min read",
		Image:    "https://images.unsplash.com/photo-1586717791821-3f44a5638d48?q=80&w=2070&auto=format&fit=crop",
		Category: "Systems",
	},
	{
		ID:       "optimizing-web-performance",
		Title:    "Optimizing Web Performance: The Ultimate Checklist",
		Excerpt:  "Don't let slow load times kill your conversion rates. Follow this checklist to ensure your website runs at lightning speed.",
		Content:  `<p class="lead">Performance is a feature.</p><h2>Image Optimization</h2><p>Always use modern formats like WebP or AVIF.</p><h2>Code Splitting</h2><p>Break your bundle into smaller chunks.</p>`,
		Author:   "Sarah Williams",
		Role:     "Lead Developer",
		Date:     "Oct 15, 2024",
		ReadTime: "7 min read",
		Image:    "https://images.unsplash.com/photo-1551288049-bebda4e38f71?q=80&w=2070&auto=format&fit=crop",
		Category: "Performance",
	},
	{
		ID:       "power-of-micro-interactions",
		Title:    "The Power of Micro-Interactions",
		Excerpt:  "How subtle animations and feedback loops can significantly enhance user experience and engagement.",
		Content:  `<p class="lead">Micro-interactions are the small, functional animations that guide users through your application.</p><h2>Feedback is Essential</h2><p>When a user clicks a button, they expect a response.</p>`,
		Author:   "Alex Johnson",
		Role:     "Creative Director",
		Date:     "Oct 05, 2024",
		ReadTime: "4 min read",
		Image:    "https://images.unsplash.com/photo-1550745165-9bc0b252726f?q=80&w=2070&auto=format&fit=crop",
		Category: "Design",
	},
	{
		ID:       "accessibility-modern-web",
		Title:    "Accessibility in Modern Web Apps",
		Excerpt:  "Building inclusive digital experiences that everyone can use, regardless of their abilities.",
		Content:  `<p class="lead">The web is for everyone.</p><h2>Semantic HTML</h2><p>Using the correct HTML tags is the first step.</p><h2>Color Contrast</h2><p>Ensure your text has sufficient contrast against the background.</p>`,
		Author:   "Emma Davis",
		Role:     "UX Researcher",
		Date:     "Sep 28, 2024",
		ReadTime: "6 min read",
		Image:    "https://images.unsplash.com/photo-1573164713988-8665fc963095?q=80&w=2069&auto=format&fit=crop",
		Category: "Development",
	},
}

var (
	instructorAlex = &models.Instructor{
		ID:     "inst_1",
		Name:   "Alex Johnson",
		Role:   "Creative Director",
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Alex",
		Bio:    "Award-winning designer with 10+ years of experience.",
	}
	instructorSarah = &models.Instructor{
		ID:     "inst_2",
		Name:   "Sarah Williams",
		Role:   "Lead Developer",
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Sarah",
		Bio:    "Full-stack wizard specializing in React and 3D.",
	}
	instructorMike = &models.Instructor{
		ID:     "inst_3",
		Name:   "Michael Chen",
		Role:   "3D Artist",
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Michael",
		Bio:    "Creating immersive digital worlds.",
	}
	instructorEmma = &models.Instructor{
		ID:     "inst_4",
		Name:   "Emma Davis",
		Role:   "UX Researcher",
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Emma",
		Bio:    "Understanding user needs to build better products.",
	}
)

var mockPortfolio = []models.PortfolioProject{
	{ID: "1", Title: "E-commerce Platform", Category: models.CategoryWeb, Description: "A modern e-commerce solution with 3D product visualization.", Color: "#3B82F6", Results: []string{"Increased user engagement by 45%", "Reduced bounce rate by 30%"}, Instructor: instructorSarah},
	{ID: "2", Title: "Brand Identity", Category: models.CategoryBranding, Description: "Complete brand identity for a tech startup.", Color: "#EF4444", Results: []string{"95% brand recognition increase", "Award-winning design"}, Instructor: instructorAlex},
	{ID: "3", Title: "Mobile App", Category: models.CategoryApp, Description: "Fitness tracking application with gamification elements.", Color: "#10B981", Results: []string{"50K+ downloads", "4.8/5 star rating"}, Instructor: instructorEmma},
	{ID: "4", Title: "3D Product Showcase", Category: models.Category3D, Description: "Interactive 3D product configurator for automotive industry.", Color: "#F59E0B", Results: []string{"35% increase in sales", "Reduced return rate"}, Instructor: instructorMike},
	{ID: "5", Title: "Fintech Dashboard", Category: models.CategoryWeb, Description: "Real-time financial data visualization platform.", Color: "#8B5CF6", Results: []string{"Processed $1M+ transactions", "Zero downtime"}, Instructor: instructorSarah},
	{ID: "6", Title: "Luxury Hotel Site", Category: models.CategoryWeb, Description: "Immersive booking experience for a 5-star resort.", Color: "#EC4899", Results: []string{"2x booking conversion", "Best UI Award 2024"}, Instructor: instructorAlex},
	{ID: "7", Title: "AR Interior App", Category: models.CategoryApp, Description: "Augmented reality app for furniture placement.", Color: "#6366F1", Results: []string{"Featured in App Store", "100k active users"}, Instructor: instructorMike},
	{ID: "8", Title: "Eco-Friendly Brand", Category: models.CategoryBranding, Description: "Sustainable packaging design and brand strategy.", Color: "#14B8A6", Results: []string{"Carbon neutral certification", "Viral social campaign"}, Instructor: instructorEmma},
}

const (
	categoryCourses = "Masterclasses & Courses"
	categoryAssets  = "Digital Assets & Templates"
)

var mockProducts = withSlugs([]models.Product{
	{Title: "Advanced 3D Web Design", Category: categoryCourses, Description: "Learn how to build immersive 3D websites using Three.js, React Three Fiber, and WebGL. Master lighting, textures, and performance optimization.", Price: 149, Rating: 5, Reviews: 128, Type: models.ProductTypeCourse, Color: "#F97316", Tags: []string{"Three.js", "React", "WebGL"}, Features: []string{"20+ Hours of Video", "Project Files Included", "Certificate of Completion", "Community Access"}},
	{Title: "UI/UX Design Mastery", Category: categoryCourses, Description: "From wireframes to high-fidelity prototypes. Learn the complete design process used by top agencies.", Price: 99, Rating: 4.8, Reviews: 85, Type: models.ProductTypeCourse, Color: "#3B82F6", Tags: []string{"Figma", "Design Systems", "UX"}, Features: []string{"Figma Masterclass", "Design System Architecture", "User Testing Guide", "Portfolio Review"}},
	{Title: "Creative Frontend Architecture", Category: categoryCourses, Description: "Build scalable, maintainable, and high-performance frontend applications. Deep dive into React patterns and state management.", Price: 129, Rating: 4.9, Reviews: 210, Type: models.ProductTypeCourse, Color: "#10B981", Tags: []string{"Architecture", "Performance", "React"}, Features: []string{"Advanced React Patterns", "State Management", "Performance Tuning", "Testing Strategies"}},
	{Title: "Three.js Shaders Masterclass", Category: categoryCourses, Description: "Unlock the true power of WebGL with custom shaders. Create mind-bending visual effects.", Price: 119, Rating: 5, Reviews: 45, Type: models.ProductTypeCourse, Color: "#8B5CF6", Tags: []string{"GLSL", "Shaders", "Math"}, Features: []string{"GLSL Fundamentals", "Vertex & Fragment Shaders", "Post-processing", "Interactive Effects"}},
	{Title: "Ultimate 3D Icon Pack", Category: categoryAssets, Description: "A collection of 50+ high-quality 3D icons ready to drop into your React projects. Fully customizable colors and materials.", Price: 49, Rating: 5, Reviews: 342, Type: models.ProductTypeAsset, Color: "#8B5CF6", Tags: []string{"Icons", "3D Models", "GLTF"}, Features: []string{"50+ 3D Icons", "GLTF & OBJ Formats", "React Components", "Commercial License"}},
	{Title: "Agency Website Template", Category: categoryAssets, Description: "The exact code base used for this website. Includes all animations, 3D components, and responsive layouts.", Price: 79, Rating: 4.7, Reviews: 56, Type: models.ProductTypeAsset, Color: "#EC4899", Tags: []string{"Template", "React", "Tailwind"}, Features: []string{"Full Source Code", "Documentation", "Framer Motion Animations", "3D Components"}},
	{Title: "Motion Graphics Bundle", Category: categoryAssets, Description: "Pack of 20 smooth Framer Motion variants and transitions for React applications.", Price: 29, Rating: 4.9, Reviews: 112, Type: models.ProductTypeAsset, Color: "#F59E0B", Tags: []string{"Animation", "Framer Motion", "UI"}, Features: []string{"20+ Animation Variants", "Copy & Paste Code", "TypeScript Support", "Performance Optimized"}},
	{Title: "Abstract 3D Backgrounds", Category: categoryAssets, Description: "10 stunning, looped 4K video backgrounds for hero sections.", Price: 39, Rating: 4.8, Reviews: 89, Type: models.ProductTypeAsset, Color: "#6366F1", Tags: []string{"Video", "Backgrounds", "3D"}, Features: []string{"10 4K Loops", "MP4 & WebM Formats", "Seamless Looping", "Color Graded"}},
	{Title: "Minimalist Figma UI Kit", Category: categoryAssets, Description: "A clean, modern UI kit with over 200 components and auto-layout ready.", Price: 59, Rating: 4.9, Reviews: 230, Type: models.ProductTypeAsset, Color: "#10B981", Tags: []string{"Figma", "UI Kit", "Design"}, Features: []string{"200+ Components", "Auto Layout", "Design System", "Dark Mode"}},
})

var mockTeam = []models.TeamMember{
	{ID: "1", Name: "Alex Johnson", Role: "Creative Director", Bio: "10+ years of experience in digital design and brand strategy.", Social: &models.SocialLinks{Twitter: "#"}},
	{ID: "2", Name: "Sarah Williams", Role: "Lead Developer", Bio: "Full-stack developer specializing in React and 3D web technologies.", Social: &models.SocialLinks{GitHub: "#"}},
	{ID: "3", Name: "Michael Chen", Role: "3D Artist", Bio: "Specialist in creating immersive 3D experiences and animations.", Social: &models.SocialLinks{LinkedIn: "#"}},
}

var mockServices = []models.Service{
	{ID: "web-design", Title: "Web Design & Development", Description: "Fast, accessible websites with immersive 3D touches.", Features: []string{"Responsive layouts", "3D product visualization", "Performance budgets"}, Price: &models.PriceRange{Min: 5000, Max: 25000, Currency: "USD"}},
	{ID: "app-development", Title: "App Development", Description: "Mobile and web applications from prototype to launch.", Features: []string{"React Native", "Gamification", "Analytics"}, Price: &models.PriceRange{Min: 10000, Max: 50000, Currency: "USD"}},
	{ID: "branding", Title: "Branding & Identity", Description: "Brand strategy, identity systems and packaging.", Features: []string{"Logo design", "Brand guidelines", "Packaging"}, Price: &models.PriceRange{Min: 3000, Max: 15000, Currency: "USD"}},
	{ID: "3d-experiences", Title: "3D Experiences", Description: "Interactive configurators, AR and WebGL showcases.", Features: []string{"Three.js scenes", "AR placement", "Product configurators"}, Price: &models.PriceRange{Min: 8000, Max: 40000, Currency: "USD"}},
}

// Slug derives a product id from its title.
func Slug(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "-")
}

func withSlugs(products []models.Product) []models.Product {
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = Slug(products[i].Title)
		}
	}
	return products
}

func clone[T any](items []T) []T {
	return append([]T(nil), items...)
}
